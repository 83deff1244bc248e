/*
Package orm provides an easy to use db wrapper

Break state space into prefixed sections called Buckets.
Each bucket contains only one type of model, which is
marshalled and unmarshalled on the way in and out of
the store. Buckets do not validate anything beyond the
model itself, relations between models are the business
of the calling code.
*/
package orm
