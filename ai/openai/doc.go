// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package openai embeds text through any server speaking the OpenAI
// /v1/embeddings protocol: Ollama, LocalAI, vLLM or OpenAI itself. Requests go
// through langchaingo; inputs larger than the batch size are split across
// several requests and the vectors come back in input order.
//
//	provider, err := openai.NewProvider(ai.NewConfig(
//	    ai.WithEmbeddingHost("http://localhost:11434"), // becomes .../v1
//	    ai.WithEmbeddingModel("nomic-embed-text"),
//	), openai.WithBatchSize(32))
//	if err != nil {
//	    return err
//	}
//	defer provider.Close()
//	vectors, err := provider.Embedder().EmbedTexts(ctx, texts)
package openai
