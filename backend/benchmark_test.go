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

import (
	"context"
	"fmt"
	"testing"

	"github.com/c2FmZQ/storage"
)

func BenchmarkReconstruct(b *testing.B) {
	input := sampleGame()
	cfg := Config{}.withDefaults()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Reconstruct(input, cfg); err != nil {
			b.Fatalf("Reconstruct: %v", err)
		}
	}
}

func BenchmarkBatchRun(b *testing.B) {
	numGames := 200
	inputs := make([]GameInput, numGames)
	for i := range inputs {
		in := sampleGame()
		in.ID = fmt.Sprintf("bench-%04d", i)
		inputs[i] = in
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		dir := b.TempDir()
		gs := NewGameStore(dir, storage.New(dir, nil))
		br := NewBatchRunner(gs, Config{Workers: 4})
		b.StartTimer()

		if err := br.Run(context.Background(), inputs); err != nil {
			b.Fatalf("Run: %v", err)
		}
	}
}

func BenchmarkListAllGameMetadata(b *testing.B) {
	dir := b.TempDir()
	gs := NewGameStore(dir, storage.New(dir, nil))
	g, err := Reconstruct(sampleGame(), Config{})
	if err != nil {
		b.Fatalf("Reconstruct: %v", err)
	}
	for i := 0; i < 500; i++ {
		g.ID = fmt.Sprintf("bench-%04d", i)
		if err := gs.SaveGame(g); err != nil {
			b.Fatalf("SaveGame: %v", err)
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		count := 0
		for _, err := range gs.ListAllGameMetadata() {
			if err != nil {
				b.Fatalf("ListAllGameMetadata: %v", err)
			}
			count++
		}
		if count != 500 {
			b.Fatalf("listed %d games, want 500", count)
		}
	}
}
