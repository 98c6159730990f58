package planner

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storyreel-server/internal/models"
)

func lullabyVars() map[string]string {
	return map[string]string{
		"child_name":      "Mia",
		"favorite_animal": "red panda",
		"bedtime_place":   "her cozy attic room",
	}
}

func TestPlan_Deterministic(t *testing.T) {
	child := &models.Child{ID: uuid.New(), Name: "Mia"}

	first, err := Plan(child, TemplateLullaby, lullabyVars())
	require.NoError(t, err)
	second, err := Plan(child, TemplateLullaby, lullabyVars())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestPlan_SubstitutesVariables(t *testing.T) {
	specs, err := Plan(nil, TemplateLullaby, lullabyVars())
	require.NoError(t, err)
	require.Len(t, specs, 7)

	assert.Equal(t, "page1_image", specs[0].SlotKey)
	assert.Equal(t, models.AssetKindImage, specs[0].Kind)
	assert.Contains(t, specs[0].ImageText, "Mia")
	assert.Contains(t, specs[0].ImageText, "her cozy attic room")
	assert.NotContains(t, specs[0].ImageText, "{child_name}")
	assert.Equal(t, "bottom_third", specs[0].SafeZone)

	assert.Equal(t, "page2_audio", specs[3].SlotKey)
	assert.Contains(t, specs[3].NarrationText, "red panda")
}

func TestPlan_CosmeticDefaultApplied(t *testing.T) {
	specs, err := Plan(nil, TemplateLullaby, lullabyVars())
	require.NoError(t, err)

	assert.Contains(t, specs[0].ImageText, "starry indigo")
}

func TestPlan_CosmeticOverride(t *testing.T) {
	vars := lullabyVars()
	vars["sky_color"] = "deep violet"

	specs, err := Plan(nil, TemplateLullaby, vars)
	require.NoError(t, err)

	assert.Contains(t, specs[0].ImageText, "deep violet")
	assert.NotContains(t, specs[0].ImageText, "starry indigo")
}

func TestPlan_ChildNameFallback(t *testing.T) {
	child := &models.Child{ID: uuid.New(), Name: "Theo"}
	vars := lullabyVars()
	delete(vars, "child_name")

	specs, err := Plan(child, TemplateLullaby, vars)
	require.NoError(t, err)

	assert.Contains(t, specs[0].ImageText, "Theo")
}

func TestPlan_MissingRequiredVariable(t *testing.T) {
	vars := lullabyVars()
	delete(vars, "favorite_animal")

	_, err := Plan(nil, TemplateLullaby, vars)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrInvalidVariables)
	assert.Contains(t, err.Error(), "favorite_animal")
}

func TestPlan_BlankRequiredVariable(t *testing.T) {
	vars := lullabyVars()
	vars["bedtime_place"] = "   "

	_, err := Plan(nil, TemplateLullaby, vars)
	assert.ErrorIs(t, err, models.ErrInvalidVariables)
}

func TestPlan_UnknownTemplate(t *testing.T) {
	_, err := Plan(nil, "birthday", lullabyVars())
	assert.ErrorIs(t, err, models.ErrUnknownTemplate)
}

func TestPlan_ReusableSlotHasNoPromptText(t *testing.T) {
	specs, err := Plan(nil, TemplateLullaby, lullabyVars())
	require.NoError(t, err)

	last := specs[len(specs)-1]
	assert.Equal(t, "background_music", last.SlotKey)
	assert.Equal(t, models.AssetKindAudio, last.Kind)
	assert.Empty(t, last.ImageText)
	assert.Empty(t, last.NarrationText)
}

func TestPlan_LetterTemplate(t *testing.T) {
	specs, err := Plan(nil, TemplateLetter, map[string]string{
		"child_name": "Ava",
		"letter":     "B",
	})
	require.NoError(t, err)
	require.Len(t, specs, 4)

	assert.Contains(t, specs[0].ImageText, "letter B")
	assert.Contains(t, specs[0].ImageText, "sunny yellow")
	assert.Contains(t, specs[2].NarrationText, "Ava")
}

func TestSlotFor(t *testing.T) {
	slot, err := SlotFor(TemplateLullaby, "page2_image")
	require.NoError(t, err)
	assert.Equal(t, models.AssetKindImage, slot.Kind)

	_, err = SlotFor(TemplateLullaby, "page9_image")
	assert.ErrorIs(t, err, models.ErrUnknownSlot)
}

func TestRequiredSlotKeys_ManifestOrder(t *testing.T) {
	keys, err := RequiredSlotKeys(TemplateLetter)
	require.NoError(t, err)
	assert.Equal(t, []string{"letter_image", "letter_intro_audio", "letter_chant_audio", "background_music"}, keys)
}
