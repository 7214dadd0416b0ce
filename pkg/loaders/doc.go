// Package loaders provides leaf loader factories for the core in pkg/ready:
// images and videos fetched over HTTP, and objects stored in S3.
//
// Every loader here follows the same shape: Check starts a goroutine that
// observes the resource's native load lifecycle, signals pre-ready as soon
// as dimensions or metadata are known, signals ready when the content is
// fully loaded or has terminally failed, and reports failures as error
// events along the way. Destroy cancels the in-flight observation.
package loaders
