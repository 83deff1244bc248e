/*
Package crypto implements the secp256k1 primitives of blendsafe: the
Ethereum style account address of a public key, deterministic signing,
and recovery of the signer address from a compact signature under the
supported recovery id conventions.

All functions are pure. Hashes are expected to be 32 byte keccak256
digests.
*/
package crypto
