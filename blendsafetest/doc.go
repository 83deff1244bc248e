/*
Package blendsafetest provides helpers for testing code that depends on
blendsafe: fake signing gateways, identities and stores.
*/
package blendsafetest
