package fallback

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"medigenius/internal/ai"
	"medigenius/internal/models"
)

func TestTextPlan_Tables(t *testing.T) {
	tests := []struct {
		name  string
		creds models.CredentialSet
		want  []ai.AdapterID
	}{
		{"primary only", models.CredentialSet{PrimaryKey: "g"}, []ai.AdapterID{ai.AdapterGemini}},
		{"fast only", models.CredentialSet{FastTextKey: "f"}, []ai.AdapterID{ai.AdapterGroq}},
		{"versatile only", models.CredentialSet{VersatileTextKey: "v"}, []ai.AdapterID{ai.AdapterOpenRouter}},
		{"primary first", models.CredentialSet{PrimaryKey: "g", FastTextKey: "f", VersatileTextKey: "v"},
			[]ai.AdapterID{ai.AdapterGemini, ai.AdapterGroq, ai.AdapterOpenRouter}},
		{"fast then versatile", models.CredentialSet{FastTextKey: "f", VersatileTextKey: "v", StockPhotoKey: "s"},
			[]ai.AdapterID{ai.AdapterGroq, ai.AdapterOpenRouter}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := TextPlan(tt.creds, models.ChannelInstagram)
			require.NoError(t, err)
			assert.Equal(t, tt.want, plan.Steps)
			assert.Equal(t, KindText, plan.Kind)
		})
	}
}

func TestTextPlan_NoCredential(t *testing.T) {
	for _, creds := range []models.CredentialSet{{}, {StockPhotoKey: "s"}, {PrimaryKey: "  "}} {
		_, err := TextPlan(creds, models.ChannelFacebook)
		assert.Equal(t, ai.KindNoCredential, ai.KindOf(err))
	}
}

func TestTextPlan_RejectsImageChannel(t *testing.T) {
	_, err := TextPlan(models.CredentialSet{PrimaryKey: "g"}, models.ChannelGeneratedImage)
	assert.Equal(t, ai.KindValidation, ai.KindOf(err))
}

func TestImagePlan_Tables(t *testing.T) {
	assert.Equal(t,
		[]ai.AdapterID{ai.AdapterPollinations, ai.AdapterPlaceholder},
		ImagePlan(models.CredentialSet{}).Steps)
	assert.Equal(t,
		[]ai.AdapterID{ai.AdapterImagen, ai.AdapterPollinations, ai.AdapterUnsplash, ai.AdapterPlaceholder},
		ImagePlan(models.CredentialSet{PrimaryKey: "g", StockPhotoKey: "s"}).Steps)
	assert.Equal(t,
		[]ai.AdapterID{ai.AdapterPollinations, ai.AdapterUnsplash, ai.AdapterPlaceholder},
		ImagePlan(models.CredentialSet{FastTextKey: "f", StockPhotoKey: "s"}).Steps)
}

func TestPlanString(t *testing.T) {
	p := ImagePlan(models.CredentialSet{})
	assert.Equal(t, "generated_image[image]: pollinations -> placeholder", p.String())
}

func credsGen() *rapid.Generator[models.CredentialSet] {
	key := rapid.SampledFrom([]string{"", "", " ", "key"})
	return rapid.Custom(func(t *rapid.T) models.CredentialSet {
		return models.CredentialSet{
			PrimaryKey:       key.Draw(t, "primary"),
			FastTextKey:      key.Draw(t, "fast"),
			VersatileTextKey: key.Draw(t, "versatile"),
			StockPhotoKey:    key.Draw(t, "stock"),
		}
	})
}

func TestPlans_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		creds := credsGen().Draw(t, "creds")
		channel := rapid.SampledFrom(models.TextChannels()).Draw(t, "channel")

		img := ImagePlan(creds)
		if len(img.Steps) == 0 || img.Steps[len(img.Steps)-1] != ai.AdapterPlaceholder {
			t.Fatalf("image plan must end with the placeholder: %v", img.Steps)
		}

		plan, err := TextPlan(creds, channel)
		if !creds.HasTextCapable() {
			if ai.KindOf(err) != ai.KindNoCredential {
				t.Fatalf("expected NoCredential, got %v", err)
			}
			return
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if creds.Trimmed().PrimaryKey != "" && plan.Steps[0] != ai.AdapterGemini {
			t.Fatalf("primary key present but plan starts with %s", plan.Steps[0])
		}

		again, _ := TextPlan(creds, channel)
		if plan.String() != again.String() {
			t.Fatalf("TextPlan is not deterministic")
		}
	})
}
