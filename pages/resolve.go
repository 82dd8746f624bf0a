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

import "strings"

// ResolveImageURL turns a backend-relative image reference into an absolute
// URL for display. Absolute references (scheme-qualified or data URIs) pass
// through unchanged, as do local preview URLs produced during editing. An
// empty reference resolves to an empty string.
func ResolveImageURL(baseURL, ref string) string {
	if ref == "" {
		return ""
	}
	if strings.Contains(ref, "://") || strings.HasPrefix(ref, "data:") {
		return ref
	}
	return strings.TrimSuffix(baseURL, "/") + "/" + strings.TrimPrefix(ref, "/")
}
