package lockfmt

import (
	"github.com/fxamacker/cbor/v2"
	"go.trai.ch/pinlock/internal/core/domain"
	"go.trai.ch/zerr"
)

// encMode uses Core Deterministic Encoding (RFC 8949 §4.2) so identical
// conflict lists always produce identical bytes, and so identical hashes.
var encMode cbor.EncMode

var decMode cbor.DecMode

func init() {
	var err error

	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("lockfmt: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		MaxArrayElements: 1 << 20,
	}.DecMode()
	if err != nil {
		panic("lockfmt: CBOR decoder initialization failed: " + err.Error())
	}
}

type conflictRecord struct {
	Name      string         `cbor:"1,keyasint"`
	Kept      resolutionWire `cbor:"2,keyasint"`
	Discarded resolutionWire `cbor:"3,keyasint"`
}

type resolutionWire struct {
	Name      string   `cbor:"1,keyasint"`
	Version   uint32   `cbor:"2,keyasint"`
	Integrity []byte   `cbor:"3,keyasint"`
	URL       string   `cbor:"4,keyasint,omitempty"`
	Deps      []string `cbor:"5,keyasint,omitempty"`
	Flags     uint16   `cbor:"6,keyasint,omitempty"`
}

func toWire(p domain.PackageResolution) resolutionWire {
	return resolutionWire{
		Name:      p.Name.String(),
		Version:   p.Version.Pack(),
		Integrity: p.Integrity[:],
		URL:       p.TarballURL,
		Deps:      p.DependencyNames(),
		Flags:     flagsOf(p),
	}
}

func fromWire(w resolutionWire) (domain.PackageResolution, error) {
	if len(w.Integrity) != domain.IntegritySize {
		return domain.PackageResolution{}, corrupted("conflict integrity has wrong size", "size", len(w.Integrity))
	}
	p := domain.PackageResolution{
		Name:         domain.NewPackageName(w.Name),
		Version:      domain.UnpackVersion(w.Version),
		TarballURL:   w.URL,
		Dependencies: domain.PackageNames(w.Deps...),
	}
	copy(p.Integrity[:], w.Integrity)
	applyFlags(&p, w.Flags)
	return p, nil
}

func encodeConflicts(conflicts []domain.Conflict) ([]byte, error) {
	records := make([]conflictRecord, len(conflicts))
	for i, c := range conflicts {
		records[i] = conflictRecord{
			Name:      c.Name,
			Kept:      toWire(c.Kept),
			Discarded: toWire(c.Discarded),
		}
	}
	b, err := encMode.Marshal(records)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to encode conflicts section")
	}
	return b, nil
}

func decodeConflicts(b []byte) ([]domain.Conflict, error) {
	var records []conflictRecord
	if err := decMode.Unmarshal(b, &records); err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrCorrupted, "invalid conflicts section"), "reason", err.Error())
	}

	out := make([]domain.Conflict, 0, len(records))
	for _, r := range records {
		kept, err := fromWire(r.Kept)
		if err != nil {
			return nil, err
		}
		discarded, err := fromWire(r.Discarded)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.Conflict{Name: r.Name, Kept: kept, Discarded: discarded})
	}
	return out, nil
}

func flagsOf(p domain.PackageResolution) uint16 {
	var f uint16
	if p.Workspace {
		f |= FlagWorkspace
	}
	if p.BrokenEdges {
		f |= FlagBrokenEdge
	}
	return f
}

func applyFlags(p *domain.PackageResolution, f uint16) {
	p.Workspace = f&FlagWorkspace != 0
	p.BrokenEdges = f&FlagBrokenEdge != 0
}
