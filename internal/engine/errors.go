package engine

import "errors"

// ErrInvalidTransition reports a programming-contract violation such as
// opening while already open. The attempted mutation is rejected and the
// prior position state is preserved.
var ErrInvalidTransition = errors.New("invalid position transition")

// ErrConcurrentClose reports a transition attempted while a close was in
// flight. Should not occur under correct serialization; guarded
// defensively and treated like ErrInvalidTransition.
var ErrConcurrentClose = errors.New("concurrent close conflict")
