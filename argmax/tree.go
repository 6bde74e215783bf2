package argmax

import (
	"sync"

	"github.com/ciphermed/mpccompare/crypto/gm"
	"github.com/ciphermed/mpccompare/crypto/paillier"
	"github.com/ciphermed/mpccompare/enccompare"
	"github.com/ciphermed/mpccompare/wire"
)

// TreeOwner runs a tournament-bracket argmax: each round pairs up the
// surviving candidates and keeps only the winners, taking ceil(log2 k)
// rounds instead of linear's k-1. Within a round, independent pairs are
// dispatched across a small worker pool of streams (one dedicated
// wire.Stream per concurrent pairing, since a single framed duplex
// stream cannot safely interleave two comparisons at once) bounded by
// num_threads, mirroring test_mpc.cc's test_enc_argmax num_threads
// parameter.
type TreeOwner struct {
	values    []*paillier.Ciphertext
	l, lambda int
	pail      *paillier.PublicKey
	gmPriv    *gm.PrivateKey
	streams   []*wire.Stream
	Output    int
}

// TreeHelper is the counterpart, run in lockstep over the same number
// of streams.
type TreeHelper struct {
	k, l, lambda int
	priv         *paillier.PrivateKey
	gmPub        *gm.PublicKey
	streams      []*wire.Stream
}

// NewTreeOwner constructs the owner side. len(streams) bounds how many
// pairwise comparisons run concurrently within a round.
func NewTreeOwner(values []*paillier.Ciphertext, l, lambda int, pail *paillier.PublicKey, gmPriv *gm.PrivateKey, streams []*wire.Stream) *TreeOwner {
	return &TreeOwner{values: values, l: l, lambda: lambda, pail: pail, gmPriv: gmPriv, streams: streams}
}

// NewTreeHelper constructs the helper side. streams must have the same
// length as the owner's, paired end for end.
func NewTreeHelper(k, l, lambda int, priv *paillier.PrivateKey, gmPub *gm.PublicKey, streams []*wire.Stream) *TreeHelper {
	return &TreeHelper{k: k, l: l, lambda: lambda, priv: priv, gmPub: gmPub, streams: streams}
}

// Run executes the owner's side of the tournament.
func (o *TreeOwner) Run() error {
	backendL := o.l + o.lambda + 1
	candidates := make([]int, len(o.values))
	for i := range candidates {
		candidates[i] = i
	}

	for len(candidates) > 1 {
		pairs, bye := pairUp(candidates)
		winners := make([]int, len(pairs))
		errs := make([]error, len(pairs))

		var wg sync.WaitGroup
		busy := make([]sync.Mutex, len(o.streams))
		for pi, pair := range pairs {
			wg.Add(1)
			go func(pi int, pair [2]int) {
				defer wg.Done()
				busy[pi%len(o.streams)].Lock()
				defer busy[pi%len(o.streams)].Unlock()

				stream := o.streams[pi%len(o.streams)]
				backendB := enccompare.LSICBackendB(backendL, o.gmPriv)
				owner := enccompare.NewOwner(o.values[pair[0]], o.values[pair[1]], o.l, o.lambda, o.pail, o.gmPriv, backendB, stream)
				if err := owner.Run(); err != nil {
					errs[pi] = err
					return
				}
				if owner.Output() {
					winners[pi] = pair[1]
				} else {
					winners[pi] = pair[0]
				}
			}(pi, pair)
		}
		wg.Wait()

		for _, err := range errs {
			if err != nil {
				return err
			}
		}
		if bye >= 0 {
			winners = append(winners, bye)
		}
		candidates = winners
	}

	o.Output = candidates[0]
	return nil
}

// Run executes the helper's side of the tournament.
func (h *TreeHelper) Run() error {
	backendL := h.l + h.lambda + 1
	remaining := h.k

	for remaining > 1 {
		numPairs := remaining / 2
		bye := remaining%2 == 1

		var wg sync.WaitGroup
		errs := make([]error, numPairs)
		busy := make([]sync.Mutex, len(h.streams))
		for pi := 0; pi < numPairs; pi++ {
			wg.Add(1)
			go func(pi int) {
				defer wg.Done()
				busy[pi%len(h.streams)].Lock()
				defer busy[pi%len(h.streams)].Unlock()

				stream := h.streams[pi%len(h.streams)]
				backendA := enccompare.LSICBackendA(backendL, h.gmPub)
				helper := enccompare.NewHelper(h.l, h.lambda, h.priv, h.gmPub.ByteLen(), backendA, stream)
				if err := helper.Run(); err != nil {
					errs[pi] = err
				}
			}(pi)
		}
		wg.Wait()

		for _, err := range errs {
			if err != nil {
				return err
			}
		}
		remaining = numPairs
		if bye {
			remaining++
		}
	}
	return nil
}

// pairUp splits candidates into consecutive pairs, returning a leftover
// unpaired index (-1 if none) that advances to the next round untested.
func pairUp(candidates []int) ([][2]int, int) {
	n := len(candidates)
	pairs := make([][2]int, 0, n/2)
	for i := 0; i+1 < n; i += 2 {
		pairs = append(pairs, [2]int{candidates[i], candidates[i+1]})
	}
	bye := -1
	if n%2 == 1 {
		bye = candidates[n-1]
	}
	return pairs, bye
}
