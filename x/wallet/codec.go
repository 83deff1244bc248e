package wallet

import amino "github.com/tendermint/go-amino"

// cdc encodes all models of this package. Models are plain structs, so no
// concrete types need to be registered.
var cdc = amino.NewCodec()
