// Package cluster groups embedding vectors by density.
//
// DBSCAN assigns each vector a label: clusters are numbered 0, 1, 2, ... in the
// order their first core point is found scanning the input front to back, and
// vectors that belong to no cluster get Noise (-1). Distances are cosine
// distances, so only the direction of a vector matters.
//
//	d, err := cluster.NewDBSCAN(cluster.WithEps(0.3), cluster.WithMinSamples(2))
//	labels, err := d.Cluster(ctx, vectors)
package cluster
