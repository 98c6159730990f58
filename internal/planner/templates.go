package planner

import "storyreel-server/internal/models"

// SlotSpec describes one named position in a template manifest.
type SlotSpec struct {
	Key      string
	Kind     models.AssetKind
	SafeZone string // layout tag for text overlay; images only

	// Reusable slots are satisfied from the pre-approved asset library
	// (shared background music) instead of a generated prompt.
	Reusable   bool
	LibraryRef string

	ImageTemplate     string
	NarrationTemplate string
}

// TemplateManifest is the fixed, versioned definition of a video format: its
// required slots, variable contract and render payload version. Manifests are
// never mutated in place; a changed payload shape becomes a new version.
type TemplateManifest struct {
	Type              string
	Version           int
	RequiredVariables []string
	CosmeticDefaults  map[string]string
	Slots             []SlotSpec
}

const (
	TemplateLullaby = "lullaby"
	TemplateLetter  = "letter"
)

var manifests = map[string]TemplateManifest{
	TemplateLullaby: {
		Type:              TemplateLullaby,
		Version:           1,
		RequiredVariables: []string{"child_name", "favorite_animal", "bedtime_place"},
		CosmeticDefaults: map[string]string{
			"sky_color": "starry indigo",
		},
		Slots: []SlotSpec{
			{
				Key:               "page1_image",
				Kind:              models.AssetKindImage,
				SafeZone:          "bottom_third",
				ImageTemplate:     "A gentle watercolor illustration of {child_name} getting ready for bed in {bedtime_place}, soft {sky_color} sky outside the window, storybook style, no text",
				NarrationTemplate: "It was bedtime for {child_name}, and the whole house was quiet.",
			},
			{
				Key:               "page1_audio",
				Kind:              models.AssetKindAudio,
				NarrationTemplate: "It was bedtime for {child_name}, and the whole house was quiet.",
			},
			{
				Key:               "page2_image",
				Kind:              models.AssetKindImage,
				SafeZone:          "top_third",
				ImageTemplate:     "A sleepy {favorite_animal} curled up beside {child_name} under a {sky_color} night sky, gentle watercolor storybook style, no text",
				NarrationTemplate: "A sleepy {favorite_animal} snuggled close and yawned a tiny yawn.",
			},
			{
				Key:               "page2_audio",
				Kind:              models.AssetKindAudio,
				NarrationTemplate: "A sleepy {favorite_animal} snuggled close and yawned a tiny yawn.",
			},
			{
				Key:               "page3_image",
				Kind:              models.AssetKindImage,
				SafeZone:          "bottom_third",
				ImageTemplate:     "{child_name} fast asleep in {bedtime_place} while stars twinkle in a {sky_color} sky, dreamy watercolor storybook style, no text",
				NarrationTemplate: "Good night, {child_name}. Sweet dreams until the morning sun.",
			},
			{
				Key:               "page3_audio",
				Kind:              models.AssetKindAudio,
				NarrationTemplate: "Good night, {child_name}. Sweet dreams until the morning sun.",
			},
			{
				Key:        "background_music",
				Kind:       models.AssetKindAudio,
				Reusable:   true,
				LibraryRef: "lullaby_soft_piano",
			},
		},
	},
	TemplateLetter: {
		Type:              TemplateLetter,
		Version:           1,
		RequiredVariables: []string{"child_name", "letter"},
		CosmeticDefaults: map[string]string{
			"theme_color": "sunny yellow",
		},
		Slots: []SlotSpec{
			{
				Key:               "letter_image",
				Kind:              models.AssetKindImage,
				SafeZone:          "center",
				ImageTemplate:     "A big playful letter {letter} decorated with {theme_color} balloons and confetti, bright flat illustration for toddlers, no other text",
				NarrationTemplate: "This is the letter {letter}! Can you say it with me, {child_name}?",
			},
			{
				Key:               "letter_intro_audio",
				Kind:              models.AssetKindAudio,
				NarrationTemplate: "Hello {child_name}! Today we are learning the letter {letter}.",
			},
			{
				Key:               "letter_chant_audio",
				Kind:              models.AssetKindAudio,
				NarrationTemplate: "{letter}, {letter}, {letter}! The letter {letter} is everywhere, {child_name}!",
			},
			{
				Key:        "background_music",
				Kind:       models.AssetKindAudio,
				Reusable:   true,
				LibraryRef: "letter_march_ukulele",
			},
		},
	},
}

// ManifestFor returns the manifest for a template type.
func ManifestFor(templateType string) (TemplateManifest, error) {
	m, ok := manifests[templateType]
	if !ok {
		return TemplateManifest{}, models.ErrUnknownTemplate
	}
	return m, nil
}

// SlotFor returns the slot spec for a template type and slot key.
func SlotFor(templateType, slotKey string) (SlotSpec, error) {
	m, err := ManifestFor(templateType)
	if err != nil {
		return SlotSpec{}, err
	}
	for _, s := range m.Slots {
		if s.Key == slotKey {
			return s, nil
		}
	}
	return SlotSpec{}, models.ErrUnknownSlot
}

// RequiredSlotKeys returns the ordered slot keys of a template.
func RequiredSlotKeys(templateType string) ([]string, error) {
	m, err := ManifestFor(templateType)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(m.Slots))
	for _, s := range m.Slots {
		keys = append(keys, s.Key)
	}
	return keys, nil
}
