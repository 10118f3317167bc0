package matcher

import "OrdersParser/internal/domain"

// Pool hands out one order's candidate files, each at most once.
type Pool struct {
	files []domain.CandidateFile
	used  []bool
}

// NewPool copies files into a fresh arena.
func NewPool(files []domain.CandidateFile) *Pool {
	owned := make([]domain.CandidateFile, 0, len(files))
	for _, f := range files {
		if f.Name == "" || f.Name == domain.SentinelFileNotFound {
			continue
		}
		owned = append(owned, f)
	}
	return &Pool{files: owned, used: make([]bool, len(owned))}
}

// Len reports how many candidates the pool owns.
func (p *Pool) Len() int { return len(p.files) }

// Remaining reports how many candidates are still unassigned.
func (p *Pool) Remaining() int {
	n := 0
	for _, u := range p.used {
		if !u {
			n++
		}
	}
	return n
}

// TakeNext returns the first unused candidate in list order.
func (p *Pool) TakeNext() (domain.CandidateFile, bool) {
	for i := range p.files {
		if !p.used[i] {
			p.used[i] = true
			return p.files[i], true
		}
	}
	return domain.CandidateFile{}, false
}

// TakeMatching returns the first unused candidate whose file name carries
// the same size tokens.
func (p *Pool) TakeMatching(tokens []string) (domain.CandidateFile, bool) {
	if len(tokens) == 0 {
		return domain.CandidateFile{}, false
	}
	for i, f := range p.files {
		if p.used[i] {
			continue
		}
		if domain.SameSize(tokens, domain.FileNameSizeTokens(f.Name)) {
			p.used[i] = true
			return f, true
		}
	}
	return domain.CandidateFile{}, false
}
