package enccompare

import (
	"github.com/ciphermed/mpccompare/crypto/gm"
	"github.com/ciphermed/mpccompare/crypto/paillier"
	"github.com/ciphermed/mpccompare/dgk"
	"github.com/ciphermed/mpccompare/gccompare"
	"github.com/ciphermed/mpccompare/lsic"
	"github.com/ciphermed/mpccompare/wire"
)

// LSICBackendA builds a BackendAFactory running the lsic back end.
func LSICBackendA(l int, gmPub *gm.PublicKey) BackendAFactory {
	return func(value uint64, stream *wire.Stream) BitCompareA {
		return lsic.NewA(value, l, gmPub, stream)
	}
}

// LSICBackendB builds a BackendBFactory running the lsic back end.
func LSICBackendB(l int, gmPriv *gm.PrivateKey) BackendBFactory {
	return func(value uint64, stream *wire.Stream) BitCompareB {
		return lsic.NewB(value, l, gmPriv, stream)
	}
}

// DGKBackendA builds a BackendAFactory running the dgk back end.
func DGKBackendA(l int, pail *paillier.PublicKey, gmPub *gm.PublicKey) BackendAFactory {
	return func(value uint64, stream *wire.Stream) BitCompareA {
		return dgk.NewA(value, l, pail, gmPub, stream)
	}
}

// DGKBackendB builds a BackendBFactory running the dgk back end.
func DGKBackendB(l int, pailPriv *paillier.PrivateKey, gmPriv *gm.PrivateKey) BackendBFactory {
	return func(value uint64, stream *wire.Stream) BitCompareB {
		return dgk.NewB(value, l, pailPriv, gmPriv, stream)
	}
}

// GCBackendA builds a BackendAFactory running the gccompare (garbled
// circuit) back end.
func GCBackendA(l int, gmPub *gm.PublicKey) BackendAFactory {
	return func(value uint64, stream *wire.Stream) BitCompareA {
		return gccompare.NewA(value, l, gmPub, stream)
	}
}

// GCBackendB builds a BackendBFactory running the gccompare (garbled
// circuit) back end.
func GCBackendB(l int, gmPriv *gm.PrivateKey) BackendBFactory {
	return func(value uint64, stream *wire.Stream) BitCompareB {
		return gccompare.NewB(value, l, gmPriv, stream)
	}
}
