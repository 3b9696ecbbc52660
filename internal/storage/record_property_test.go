package storage

import (
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/valter-silva-au/agent-board/pkg/models"
	"pgregory.net/rapid"
)

func genAlphaString(t *rapid.T, label string, minLen, maxLen int) string {
	letters := "abcdefghijklmnopqrstuvwxyz"
	n := rapid.IntRange(minLen, maxLen).Draw(t, label+"Len")
	b := make([]byte, n)
	for i := range b {
		b[i] = letters[rapid.IntRange(0, len(letters)-1).Draw(t, label+"Char")]
	}
	return string(b)
}

func genStatus(t *rapid.T) models.Status {
	pipeline := models.Pipeline()
	return pipeline[rapid.IntRange(0, len(pipeline)-1).Draw(t, "statusIdx")]
}

func genPriority(t *rapid.T) models.Priority {
	priorities := []models.Priority{models.P0, models.P1, models.P2, models.P3}
	return priorities[rapid.IntRange(0, len(priorities)-1).Draw(t, "priorityIdx")]
}

func genTime(t *rapid.T, label string) time.Time {
	secs := rapid.Int64Range(1600000000, 1900000000).Draw(t, label)
	return time.Unix(secs, 0).UTC()
}

func genAgentList(t *rapid.T, label string, max int) []string {
	n := rapid.IntRange(0, max).Draw(t, label+"N")
	if n == 0 {
		return nil
	}
	agents := make([]string, n)
	for i := range agents {
		agents[i] = genAlphaString(t, fmt.Sprintf("%s%d", label, i), 1, 10)
	}
	return agents
}

func genRecordTask(t *rapid.T) *models.Task {
	task := &models.Task{
		ID:          fmt.Sprintf("task-%03d", rapid.IntRange(1, 9999).Draw(t, "taskNum")),
		Title:       genAlphaString(t, "title", 1, 40),
		Description: genAlphaString(t, "desc", 0, 80),
		Status:      genStatus(t),
		Priority:    genPriority(t),
		Assigned:    genAgentList(t, "assigned", 3),
		Subscribers: genAgentList(t, "subscribers", 3),
		Tags:        genAgentList(t, "tags", 3),
		Created:     genTime(t, "created"),
		Updated:     genTime(t, "updated"),
	}

	if rapid.Bool().Draw(t, "hasPRD") {
		task.PRD = "docs/prd/" + genAlphaString(t, "prd", 1, 10) + ".md"
	}

	nComments := rapid.IntRange(0, 4).Draw(t, "nComments")
	for i := 0; i < nComments; i++ {
		task.Thread = append(task.Thread, models.Comment{
			Timestamp: genTime(t, fmt.Sprintf("commentTime%d", i)).Truncate(time.Minute),
			Agent:     genAlphaString(t, fmt.Sprintf("commentAgent%d", i), 1, 10),
			Message:   genAlphaString(t, fmt.Sprintf("commentMsg%d", i), 1, 60),
		})
	}

	return task
}

// Every encoded record decodes back to the identical task.
func TestRecordRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		task := genRecordTask(rt)

		decoded, err := DecodeTask(task.ID+".md", EncodeTask(task))
		if err != nil {
			rt.Fatalf("decoding: %v", err)
		}
		if !reflect.DeepEqual(task, decoded) {
			rt.Fatalf("round trip mismatch:\nwant %+v\ngot  %+v", task, decoded)
		}
	})
}
