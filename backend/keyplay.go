// Copyright (c) 2026 TTBT Enterprises LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package backend

import "math"

// IsKeyPlay reports whether the win-probability swing of a play meets the
// configured magnitude threshold. Pure predicate, no state.
func IsKeyPlay(wpBefore, wpAfter, threshold float64) bool {
	return math.Abs(wpAfter-wpBefore) >= threshold
}
