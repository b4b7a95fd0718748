package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimeAgo(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		ago  time.Duration
		want string
	}{
		{0, "Today"},
		{20 * time.Hour, "Yesterday"},
		{3 * day, "3 days ago"},
		{10 * day, "1 week ago"},
		{20 * day, "2 weeks ago"},
		{65 * day, "2 months ago"},
		{800 * day, "2 years ago"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TimeAgo(now.Add(-tt.ago), now), "ago %s", tt.ago)
	}
	assert.Equal(t, "Recently", TimeAgo(time.Time{}, now))
}

func TestDaysRemaining(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, 3, DaysRemaining(now.Add(60*time.Hour), now))
	assert.Equal(t, 0, DaysRemaining(now.Add(-48*time.Hour), now))
	assert.Equal(t, 0, DaysRemaining(time.Time{}, now))
}
