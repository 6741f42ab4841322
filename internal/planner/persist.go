package planner

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/keremk/tutopanda/internal/blobstore"
	"github.com/keremk/tutopanda/internal/storage"
)

// maxRevisionProbe bounds the linear probe used to resolve a plan-path
// collision; a real collision run this long would indicate a stuck
// revision counter elsewhere, not legitimate contention.
const maxRevisionProbe = 1000

// Persist writes plan to its revision's plan path under blobs. If that
// path is already occupied (a concurrent planner raced this one to the
// same target revision), the plan's revision is advanced by one and the
// write retried, linearly probing forward until a free slot is found.
// Returns the final (possibly advanced) plan and the path it was written
// to.
func Persist(ctx context.Context, blobs blobstore.Store, movieID string, plan Plan) (Plan, string, error) {
	sc := storage.New(movieID)

	for i := 0; i < maxRevisionProbe; i++ {
		path := sc.PlanPath(string(plan.Revision))
		exists, err := blobs.FileExists(ctx, path)
		if err != nil {
			return Plan{}, "", fmt.Errorf("planner: check plan path %q: %w", path, err)
		}
		if exists {
			plan.Revision = plan.Revision.Next()
			continue
		}

		data, err := json.Marshal(plan)
		if err != nil {
			return Plan{}, "", fmt.Errorf("planner: marshal plan: %w", err)
		}
		if err := blobs.WriteBytes(ctx, path, data); err != nil {
			return Plan{}, "", fmt.Errorf("planner: write plan %q: %w", path, err)
		}
		return plan, path, nil
	}

	return Plan{}, "", fmt.Errorf("planner: could not find a free revision slot for movie %q after %d attempts", movieID, maxRevisionProbe)
}
