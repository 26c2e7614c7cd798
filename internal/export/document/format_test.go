package document

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatValue(t *testing.T) {
	empty := ""
	named := "Goma"
	cases := []struct {
		name string
		key  string
		in   any
		want string
	}{
		{"true", "mPesa", true, "Oui"},
		{"false", "mPesa", false, "Non"},
		{"legacy on", "airtelMoney", "on", "Oui"},
		{"legacy off", "airtelMoney", "off", "Non"},
		{"nil", "email", nil, "N/A"},
		{"empty string", "email", "", "N/A"},
		{"nil pointer", "photoIDPath", (*string)(nil), "N/A"},
		{"empty pointer", "photoIDPath", &empty, "N/A"},
		{"pointer", "lieuFait", &named, "Goma"},
		{"plain text", "nationalite", "Congolaise", "Congolaise"},
		{"number", "id", int64(42), "42"},
		{"date only", "dateNaissance", "1990-07-14", "14/07/1990"},
		{"date at midnight utc", "dateNaissance", "1990-07-14T00:00:00Z", "14/07/1990"},
		{"datetime local", "dateAutorite", "2024-03-05T16:20", "05/03/2024"},
		{"midnight with positive offset", "dateNaissance", "2024-03-05T00:00:00+02:00", "05/03/2024"},
		{"afternoon with positive offset", "dateNaissance", "2024-03-05T13:00:00+02:00", "05/03/2024"},
		{"late evening with negative offset", "dateEngagement", "2024-03-05T23:30:00-05:00", "05/03/2024"},
		{"unparseable date", "dateEngagement", "bientôt", "bientôt"},
		{"time value", "dateEnregistrement", time.Date(2024, 3, 5, 23, 59, 0, 0, time.UTC), "05/03/2024"},
		{"zero time", "dateEnregistrement", time.Time{}, "N/A"},
		{"non date key keeps iso text", "numEnregistrement", "2024-03-05", "2024-03-05"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatValue(tc.key, tc.in, French))
		})
	}
}

func TestFormatValueUsesLocale(t *testing.T) {
	loc := Locale{Yes: "Yes", No: "No", NA: "-", DateLayout: "2006/01/02"}

	assert.Equal(t, "Yes", FormatValue("mPesa", true, loc))
	assert.Equal(t, "-", FormatValue("email", "", loc))
	assert.Equal(t, "1990/07/14", FormatValue("dateNaissance", "1990-07-14", loc))
}

func TestFormatKey(t *testing.T) {
	assert.Equal(t, "Nom Prenom", FormatKey("nomPrenom"))
	assert.Equal(t, "Association Responsable", FormatKey("associationResponsable"))
	assert.Equal(t, "M Pesa", FormatKey("mPesa"))
	assert.Equal(t, "Sexe", FormatKey("sexe"))
	assert.Equal(t, "", FormatKey(""))
}
