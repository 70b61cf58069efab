// Package gameserver wires the combat core to the relay: the claim handler,
// authority-side combat operations, state replication and effect tracking.
package gameserver

import "errors"

// ErrNotAuthority is returned when a participant attempts an operation only the
// authority may perform.
var ErrNotAuthority = errors.New("operation requires the authority")
