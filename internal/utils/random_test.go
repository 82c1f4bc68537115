package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sysu-ecnc-dev/shift-coverage/backend/internal/conflict"
	"github.com/sysu-ecnc-dev/shift-coverage/backend/internal/domain"
)

func TestGenerateStationTemplates(t *testing.T) {
	for range 20 {
		ptrs := GenerateStationTemplates(1, 2)
		require.NotEmpty(t, ptrs)

		templates := make([]domain.ShiftTemplate, len(ptrs))
		for i, p := range ptrs {
			require.NoError(t, ValidateShiftTemplate(p))
			templates[i] = *p
		}
		assert.False(t, conflict.Detect(templates).HasConflicts())
	}
}

func TestGenerateRandomWindows(t *testing.T) {
	for range 20 {
		windows := GenerateRandomWindows()
		require.NotEmpty(t, windows)
		for _, w := range windows {
			rw, ok := w.(domain.RecurringWindow)
			require.True(t, ok)
			assert.Less(t, rw.StartTime, rw.EndTime)
		}
	}
}

func TestGenerateUsernameFromChineseName(t *testing.T) {
	username := GenerateUsernameFromChineseName("张伟")
	assert.Regexp(t, `^z[a-z]*w[a-z]*[0-9]{1,3}$`, username)
}
