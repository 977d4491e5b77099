package crawler

import "errors"

// ErrDistributionSelectNotFound is returned when the listing page has no
// select[name=distribution] control. Without it no distribution can be found,
// so the run cannot continue.
var ErrDistributionSelectNotFound = errors.New("distribution select control not found in listing page")
