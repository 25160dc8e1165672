// Package mock provides deterministic stand-ins for ai.Embedder and
// ai.AIProvider so tests never reach an embedding server.
//
// By default a MockEmbedder hashes each text into a unit vector, so equal
// texts get equal vectors. WithVector pins a vector for a text, which lets
// clustering tests place articles deliberately; WithEmbedTextsFunc replaces
// the behavior entirely, for example to inject failures:
//
//	embedder := mock.NewMockEmbedder().
//	    WithVector("cat rescued", []float32{1, 0}).
//	    WithVector("dog rescued", []float32{0.99, 0.1})
//	provider := mock.NewMockProviderWithEmbedder(embedder)
//
// CallCount, TextCount and Embedded report what reached the embedder.
// MockProvider reports the model "mock".
package mock
