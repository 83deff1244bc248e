/*
Package blendsafe defines the common interfaces that tie together the
subpackages of a multi-signer wallet backend, as well as implementations of
the simpler components (when interfaces would be too much overhead).

A wallet is a set of signer identities and a quorum threshold. Signers
propose payloads, collect approvals and, once the threshold is reached,
request a signature over the payload hash from an external key service that
is reached through the SigningGateway interface. The wallet's address is
derived from the public key the key service holds for the wallet.

We pass context through context.Context between the API, the wallet store
and the signing gateway. To do so, blendsafe defines some common keys to
store info, such as the logger and the authenticated caller.

There should exist two functions for every XYZ of type T that we want to
support in Context:

  WithXYZ(Context, T) Context
  GetXYZ(Context) (val T, ok bool)

WithXYZ may panic if the value was previously set to avoid lower-level
modules overwriting the value (eg. caller).
*/
package blendsafe
