// Package audience infers who a reel speaks to from its comments.
//
// Each comment becomes a signal vector of age, gender and interest keyword
// evidence. A SegmentationStrategy partitions the vectors into at most k
// clusters, a ZeroShotLabeler names each cluster from the closed taxonomy in
// package reel, and the reel takes the label of the largest cluster. Ties go
// to the lexicographically first label so repeated runs agree.
package audience
