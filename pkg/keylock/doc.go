/*
Package keylock serializes work per key.

It keeps one reference-counted mutex per active key, so unrelated keys never
contend and idle keys are garbage collected. An optional distributed locker
extends the guarantee across replicas.
*/
package keylock
