// Package sheets binds each record kind to its printed sheet: the section
// layout of the document, its file name and the archive folder of a batch.
package sheets

import (
	"fmt"
	"slices"
	"time"

	"arefa/internal/export/archive"
	"arefa/internal/export/document"
	"arefa/internal/export/filter"
	"arefa/internal/registry/models"
	dErrors "arefa/pkg/domain-errors"
)

// Record is what a sheet needs from a stored record.
type Record interface {
	RecordID() int64
	DisplayName() string
	RegisteredOn() time.Time
	PhotoRef() string
	Fields() map[string]any
}

// Profile describes how one record kind is printed and archived.
type Profile struct {
	Kind       models.Kind
	Layout     document.Layout
	Activities []string
	Categories []string
	folder     string
}

// Folder is the directory name used inside the archive of batch n (1-based).
func (p Profile) Folder(n int) string {
	return fmt.Sprintf(p.folder, n)
}

// ArchiveName is the file name of the archive of batch n.
func (p Profile) ArchiveName(n int) string {
	return p.Folder(n) + ".zip"
}

// KnownActivity reports whether key is a filterable flag of this kind.
func (p Profile) KnownActivity(key string) bool {
	return slices.Contains(p.Activities, key)
}

// ValidateCriteria rejects criteria the filter would silently never match:
// a malformed date, an activity or a category this kind does not have.
func (p Profile) ValidateCriteria(c filter.Criteria) error {
	if c.Date != "" && !filter.ValidDate(c.Date) {
		return dErrors.Newf(dErrors.CodeBadRequest, "date must be formatted YYYY-MM-DD, got %q", c.Date)
	}
	if c.Activity != "" && c.Activity != filter.ActivityAll && !p.KnownActivity(c.Activity) {
		return dErrors.Newf(dErrors.CodeBadRequest, "unknown activity %q", c.Activity)
	}
	if c.Category != "" && c.Category != filter.ActivityAll && !slices.Contains(p.Categories, c.Category) {
		return dErrors.Newf(dErrors.CodeBadRequest, "unknown category %q", c.Category)
	}
	return nil
}

// Job assembles the archive job for batch n from the records of that page.
func Job[T Record](p Profile, n int, page []T) archive.Job {
	return archive.Job{
		Number:  n,
		Folder:  p.Folder(n),
		Layout:  p.Layout,
		Sources: Sources(page),
	}
}

// Source converts a record into the renderer's input.
func Source(r Record) document.Source {
	return document.Source{
		ID:           r.RecordID(),
		Name:         r.DisplayName(),
		RegisteredAt: r.RegisteredOn(),
		PhotoRef:     r.PhotoRef(),
		Fields:       r.Fields(),
	}
}

func Sources[T Record](recs []T) []document.Source {
	out := make([]document.Source, len(recs))
	for i, r := range recs {
		out[i] = Source(r)
	}
	return out
}

// RegistrationNumber is the printed trader number, e.g. "1234/AREFA" for id 51234.
func RegistrationNumber(id int64) string {
	if id == 0 {
		return "00/AREFA"
	}
	return models.IDFragment(id) + "/AREFA"
}

// Trader is the "fiche cambiste" profile.
var Trader = Profile{
	Kind: models.KindTrader,
	Layout: document.Layout{
		Kind:  string(models.KindTrader),
		Title: "FICHE D'ENREGISTREMENT CAMBISTE",
		Subtitle: func(src document.Source) string {
			return fmt.Sprintf("Num. Enregistrement : %s - Date d'enregistrement : %s",
				RegistrationNumber(src.ID), document.FormatValue("date", src.RegisteredAt, document.French))
		},
		PhotoCaption:     "Photo d'identité",
		PhotoPlaceholder: "Photo N/A",
		Sections: []document.Section{
			{Title: "I. Identité du Cambiste", Keys: []string{"nomPrenom", "sexe", "lieuNaissance", "dateNaissance", "nationalite", "documentIdentite", "adresse", "telephone", "email"}},
			{Title: "II. Association de rattachement", Keys: []string{"associationNom", "associationNumero", "associationResponsable", "associationContact", "garantieNature"}},
			{Title: "III. Activités exercées", Keys: []string{"changeManuel", "airtelMoney", "mPesa", "orangeMoney", "afrimoney", "venteTelecom", "autresActivites"}},
			{Title: "IV. Détails sur l’activité", Keys: []string{"lieuActivite", "anciennete", "volume", "sources"}},
			{Title: "V. Engagements", Keys: []string{"soussigne", "nomAssociationAtteste", "nomResponsableAssociation", "lieuFait", "dateEngagement"}},
			{Title: "VI. Réservé à l’Autorité", Keys: []string{"numEnregistrement", "agentNom", "dateAutorite"}},
		},
		FileName: func(src document.Source) string {
			return fmt.Sprintf("Fiche-Cambiste-%s-AREFA.pdf", models.IDFragment(src.ID))
		},
	},
	Activities: models.TraderActivities,
	folder:     "Fiches_AREFA_Lot_%d",
}

// Operator is the "fiche opérateur" profile.
var Operator = Profile{
	Kind: models.KindOperator,
	Layout: document.Layout{
		Kind:  string(models.KindOperator),
		Title: "FICHE D'IDENTIFICATION OPÉRATEUR",
		Subtitle: func(document.Source) string {
			return "Système de Gestion AREFA - Zone Libérée AFC/M23"
		},
		PhotoCaption:     "Photo de l'Opérateur",
		PhotoPlaceholder: "Photo N/A",
		Sections: []document.Section{
			{Title: "I. Statut & Localisation", Keys: []string{"statut", "nomEtablissement", "numAgent", "monnaieInternationale"}},
			{Title: "II. Identité de l’Opérateur", Keys: []string{"nomPrenom", "sexe", "lieuNaissance", "dateNaissance", "nationalite", "documentIdentite", "adresse", "telephone", "email"}},
			{Title: "III. Services de Monnaie Électronique", Keys: []string{"airtelMoney", "mPesa", "orangeMoney", "afrimoney", "venteTelecom"}},
			{Title: "IV. Réservé à l’Autorité", Keys: []string{"numEnregistrement", "agentNom", "dateAutorite"}},
		},
		Signatures: []string{"Signature de l'Opérateur", "Sceau de l'Autorité AREFA"},
		Footer: func(generated string) string {
			return "Document officiel AREFA - Généré le " + generated
		},
		FileName: func(src document.Source) string {
			return "Fiche_Operateur_" + archive.SafeName(src.Name) + ".pdf"
		},
	},
	Activities: models.OperatorActivities,
	Categories: models.Statuts,
	folder:     "Lot_%d_Operateurs",
}

// For returns the profile of kind.
func For(kind models.Kind) (Profile, bool) {
	switch kind {
	case models.KindTrader:
		return Trader, true
	case models.KindOperator:
		return Operator, true
	}
	return Profile{}, false
}
