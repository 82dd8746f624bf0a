/*
Copyright 2026 The Simwave Contributors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package pages

import (
	"errors"
	"fmt"
)

// ErrPageNotFound is returned by GetPage when the backend has no page for
// the requested slug. Callers typically treat it as "empty document", not
// as a failure.
var ErrPageNotFound = errors.New("page not found")

// ErrUnauthorized is returned when the backend rejects the bearer
// credential (401 or 403). The client does not manage credentials; it only
// makes the rejection distinguishable.
var ErrUnauthorized = errors.New("unauthorized")

// StatusError is a non-2xx response from the backend that does not map to
// a sentinel error.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("received status %d: %s", e.Code, e.Body)
}
