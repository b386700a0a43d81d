// Package resilience holds the collaborator error taxonomy and the bounded
// retry loop used around generation, validation, and syllabification calls.
// Local structural errors (bad inserts, malformed sequences) never pass
// through here: they indicate corpus-integrity problems and must propagate
// immediately.
package resilience

import (
	"context"
	"errors"
	"net"

	"github.com/rotisserie/eris"
)

var (
	// ErrCollaboratorTimeout marks a generation/validation/syllabification
	// request that exceeded its deadline. Retried with bounded attempts.
	ErrCollaboratorTimeout = eris.New("collaborator timeout")

	// ErrCollaboratorUnavailable marks a collaborator that could not be
	// reached or returned a server-side failure. Retried with bounded
	// attempts; repeated round-level occurrences escalate to an abort.
	ErrCollaboratorUnavailable = eris.New("collaborator unavailable")

	// ErrExpansionAborted is the fatal terminal error raised after
	// repeated round-level collaborator failure. Surfaced to the operator,
	// never auto-recovered.
	ErrExpansionAborted = eris.New("expansion aborted")
)

// Classify wraps a raw collaborator error into the taxonomy. Context
// deadline and network timeouts become ErrCollaboratorTimeout; everything
// else from the wire becomes ErrCollaboratorUnavailable.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrCollaboratorTimeout) || errors.Is(err, ErrCollaboratorUnavailable) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return eris.Wrap(ErrCollaboratorTimeout, err.Error())
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return eris.Wrap(ErrCollaboratorTimeout, err.Error())
	}
	return eris.Wrap(ErrCollaboratorUnavailable, err.Error())
}

// IsCollaborator reports whether err belongs to the retryable collaborator
// taxonomy.
func IsCollaborator(err error) bool {
	return errors.Is(err, ErrCollaboratorTimeout) || errors.Is(err, ErrCollaboratorUnavailable)
}
