package token

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// DistributionStatus reports whether token distribution has begun and which
// super owner started it. Initiator is the zero address until then.
type DistributionStatus struct {
	Started   bool           `json:"started"`
	Initiator common.Address `json:"initiator"`
}

// StartDistribution flips the one-way distribution gate. Only a super owner
// may call it, and only once.
func (t *Token) StartDistribution(caller common.Address) ([]Event, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.requireSuperOwner(caller); err != nil {
		return nil, fmt.Errorf("startDistribution: %w", err)
	}
	if t.distribution.Started {
		return nil, fmt.Errorf("startDistribution: %w by %s", ErrAlreadyStarted, t.distribution.Initiator.Hex())
	}
	t.distribution = DistributionStatus{Started: true, Initiator: caller}
	return []Event{distributionStartedEvent(caller)}, nil
}

// DistributionStatus returns the current distribution state.
func (t *Token) DistributionStatus() DistributionStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.distribution
}
