package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abigailisabeldefontes-stack/narrative-nurture-box/internal/errors"
	"github.com/abigailisabeldefontes-stack/narrative-nurture-box/internal/models"
	"github.com/abigailisabeldefontes-stack/narrative-nurture-box/internal/utils"
)

func TestStoryboardService_GenerateUsesComposerOrder(t *testing.T) {
	chars, collector := newTestCharacterService(t)
	ctx := context.Background()

	borin, err := chars.Create(ctx, models.CharacterInput{Name: "Borin", Profile: "Smith"})
	require.NoError(t, err)
	aria, err := chars.Create(ctx, models.CharacterInput{Name: "Aria", Profile: "Scout"})
	require.NoError(t, err)

	svc := NewStoryboardService(chars, 0)
	prompts, err := svc.Generate(ctx, models.SceneDraft{
		Description:    "Duel at dawn",
		Duration:       10,
		CharacterIDs:   []string{borin.ID, aria.ID},
		CameraMovement: "Close-up",
		LightingStyle:  "Golden Hour",
	})
	require.NoError(t, err)
	require.Len(t, prompts, 4)
	assert.True(t, strings.HasPrefix(prompts[0].Text,
		"Featuring characters: Aria, Borin. Scene: Duel at dawn. Camera: Close-up. Lighting: Golden Hour. Duration: 10 seconds."))
	assert.Equal(t, int64(1), collector.GetCounterValue("storyboard_generations_total"))
}

func TestStoryboardService_ClampsDuration(t *testing.T) {
	chars, _ := newTestCharacterService(t)
	svc := NewStoryboardService(chars, 0)

	cases := map[int]string{
		0:   "Duration: 6 seconds.",
		-3:  "Duration: 1 seconds.",
		120: "Duration: 60 seconds.",
		42:  "Duration: 42 seconds.",
	}
	for in, want := range cases {
		prompts, err := svc.Generate(context.Background(), models.SceneDraft{Description: "Harbor", Duration: in})
		require.NoError(t, err)
		assert.Contains(t, prompts[0].Text, want)
	}
}

func TestStoryboardService_RejectsBeforeStore(t *testing.T) {
	svc := NewStoryboardService(NewCharacterService(failingStore{}, utils.NewAPIMetrics(utils.NewMetricsCollector())), 0)
	ctx := context.Background()

	_, err := svc.Generate(ctx, models.SceneDraft{Description: "  "})
	assert.True(t, errors.IsValidationError(err))

	_, err = svc.Generate(ctx, models.SceneDraft{Description: "x", CameraMovement: "Dutch Angle"})
	assert.True(t, errors.IsValidationError(err))

	_, err = svc.Generate(ctx, models.SceneDraft{Description: "x", LightingStyle: "Neon"})
	assert.True(t, errors.IsValidationError(err))

	// 描述合法时才会访问存储
	_, err = svc.Generate(ctx, models.SceneDraft{Description: "x"})
	assert.Equal(t, MsgFetchFailed, errors.MessageOf(err))
}

func TestStoryboardService_DelayCancelledByContext(t *testing.T) {
	chars, _ := newTestCharacterService(t)
	svc := NewStoryboardService(chars, time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := svc.GenerateWithRoster(ctx, models.SceneDraft{Description: "x"}, nil)
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeTimeout, errors.TypeOf(err))
	assert.Less(t, time.Since(start), time.Minute)
}

func TestStoryboardService_Options(t *testing.T) {
	chars, _ := newTestCharacterService(t)
	opts := NewStoryboardService(chars, 0).Options()
	assert.Len(t, opts.CameraMovements, 6)
	assert.Len(t, opts.LightingStyles, 5)
	assert.Equal(t, 6, opts.DefaultDuration)
}
