package provider

// ReservationCallback is called after a provider grants or takes back a reservation
type ReservationCallback func(
	provider Provider,
	reservation Reservation,
	userData interface{},
)

// CallbackOptions is an optional set of callbacks that will be executed when reservations are
// granted and returned. They are called with the provider's lock held and must not call back
// into the provider.
type CallbackOptions struct {
	Allocate ReservationCallback
	Free     ReservationCallback
	UserData interface{}
}

type reservationCallbacks struct {
	Callbacks *CallbackOptions
	Provider  Provider
}

func (c *reservationCallbacks) Allocate(reservation Reservation) {
	if c.Callbacks != nil && c.Callbacks.Allocate != nil {
		c.Callbacks.Allocate(c.Provider, reservation, c.Callbacks.UserData)
	}
}

func (c *reservationCallbacks) Free(reservation Reservation) {
	if c.Callbacks != nil && c.Callbacks.Free != nil {
		c.Callbacks.Free(c.Provider, reservation, c.Callbacks.UserData)
	}
}
