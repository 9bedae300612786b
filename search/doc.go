// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package search ranks the entries of an index against a text query.
//
// The query is embedded with the same Embedder used to build the index and
// every entry is scored by cosine similarity. Results come back in
// descending score order; equal scores keep corpus order. Ranking itself
// (Rank) is a pure function of the index and the query vector.
package search
