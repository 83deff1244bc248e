/*
Package wallet implements multi signer wallets.

A wallet is created with a set of signers and a threshold. Any signer can
propose a payload, other signers approve it and, once the number of
approvals reaches the threshold, any signer can request a signature of the
payload from the signing gateway. Signatures are made with the key of the
wallet derivation path, so every wallet has its own account address.

All operations go through Store, which serializes the operations of a
single wallet and never holds a wallet lock while waiting for the signing
gateway.
*/
package wallet
