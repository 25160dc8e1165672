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

package ingestion

import (
	"context"

	"github.com/poiesic/newsroom/core"
)

// processor runs against a batch after it has been stored and published.
// Failures are logged; the batch stays searchable either way.
type processor interface {
	name() string
	process(ctx context.Context, batch *core.Batch) error
}

// schedule hands stored to every processor on the process pool. Processors
// run under the pipeline's lifetime context, not the caller's.
// Wait blocks until all scheduled work has returned.
func (p *Pipeline) schedule(stored *core.Batch) {
	for _, proc := range p.processors {
		p.pending.Add(1)
		err := p.processPool.Submit(func() {
			defer p.pending.Done()
			if err := proc.process(p.lifetime, stored); err != nil {
				p.logger.Error("batch processor failed", "processor", proc.name(), "batch", stored.Name(), "err", err)
			}
		})
		if err != nil {
			p.pending.Done()
			p.logger.Error("could not schedule batch processor", "processor", proc.name(), "batch", stored.Name(), "err", err)
		}
	}
}
