/*
Package observability provides tools for monitoring the conversion pipeline.

It turns converter lifecycle hooks into Prometheus metrics and structured log
lines, and offers a combinator to attach several hook sets at once.
*/
package observability
