package vehicle

import (
	"net/http"

	"github.com/autopeer-io/rentfleet/internal/pkg/errno"
)

var (
	// ErrNotFound is returned when no vehicle matches the requested name.
	ErrNotFound = errno.New(http.StatusNotFound, "vehicle_not_found", "vehicle not found")

	// ErrBusy is returned when a vehicle is held by another occupant.
	ErrBusy = errno.New(http.StatusConflict, "vehicle_busy", "vehicle is occupied by another client")

	// ErrNotReserved is returned when starting a vehicle nobody has reserved.
	ErrNotReserved = errno.New(http.StatusConflict, "vehicle_not_reserved", "vehicle is not reserved")

	// ErrSettling is returned when another stop is already settling the trip.
	ErrSettling = errno.New(http.StatusConflict, "settlement_in_progress", "trip settlement is already in progress")
)
