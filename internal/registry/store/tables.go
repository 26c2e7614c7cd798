package store

import (
	"database/sql"

	"arefa/internal/platform/database"
	"arefa/internal/registry/models"
)

var identityColumns = []string{
	"nom_prenom", "sexe", "date_naissance", "lieu_naissance", "nationalite",
	"document_identite", "adresse", "telephone", "email",
}

func identityValues(i *models.Identity) []any {
	return []any{
		i.NomPrenom, i.Sexe, i.DateNaissance, i.LieuNaissance, i.Nationalite,
		i.DocumentIdentite, i.Adresse, i.Telephone, i.Email,
	}
}

func identityTargets(i *models.Identity) []any {
	return []any{
		&i.NomPrenom, &i.Sexe, &i.DateNaissance, &i.LieuNaissance, &i.Nationalite,
		&i.DocumentIdentite, &i.Adresse, &i.Telephone, &i.Email,
	}
}

var mobileMoneyColumns = []string{"airtel_money", "m_pesa", "orange_money", "afrimoney", "vente_telecom"}

func mobileMoneyValues(m *models.MobileMoney) []any {
	return []any{bool(m.AirtelMoney), bool(m.MPesa), bool(m.OrangeMoney), bool(m.Afrimoney), bool(m.VenteTelecom)}
}

func mobileMoneyTargets(m *models.MobileMoney) []any {
	return []any{
		(*bool)(&m.AirtelMoney), (*bool)(&m.MPesa), (*bool)(&m.OrangeMoney),
		(*bool)(&m.Afrimoney), (*bool)(&m.VenteTelecom),
	}
}

var authorityColumns = []string{"num_enregistrement", "agent_nom", "date_autorite"}

func authorityValues(a *models.Authority) []any {
	return []any{a.NumEnregistrement, a.AgentNom, a.DateAutorite}
}

func authorityTargets(a *models.Authority) []any {
	return []any{&a.NumEnregistrement, &a.AgentNom, &a.DateAutorite}
}

func concat(parts ...[]string) []string {
	var out []string
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func join(parts ...[]any) []any {
	var out []any
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// TraderTable maps models.Trader onto the cambistes table.
var TraderTable = Table[*models.Trader]{
	Name: "cambistes",
	Columns: concat(
		identityColumns,
		[]string{"association_nom", "association_numero", "association_responsable", "association_contact", "garantie_nature"},
		[]string{"change_manuel"},
		mobileMoneyColumns,
		[]string{"autres_activites", "lieu_activite", "anciennete", "volume", "sources"},
		[]string{"soussigne", "nom_association_atteste", "nom_responsable_association", "lieu_fait", "date_engagement"},
		authorityColumns,
		[]string{"photo_id_path", "date_enregistrement"},
	),
	Immutable: []string{"date_enregistrement"},
	New:       func() *models.Trader { return &models.Trader{} },
	Values: func(t *models.Trader) []any {
		return join(
			identityValues(&t.Identity),
			[]any{t.AssociationNom, t.AssociationNumero, t.AssociationResponsable, t.AssociationContact, t.GarantieNature},
			[]any{bool(t.ChangeManuel)},
			mobileMoneyValues(&t.MobileMoney),
			[]any{t.AutresActivites, t.LieuActivite, t.Anciennete, t.Volume, t.Sources},
			[]any{t.Soussigne, t.NomAssociationAtteste, t.NomResponsableAssociation, t.LieuFait, t.DateEngagement},
			authorityValues(&t.Authority),
			[]any{t.PhotoIDPath, t.DateEnregistrement},
		)
	},
	Targets: func(t *models.Trader) []any {
		return join(
			identityTargets(&t.Identity),
			[]any{&t.AssociationNom, &t.AssociationNumero, &t.AssociationResponsable, &t.AssociationContact, &t.GarantieNature},
			[]any{(*bool)(&t.ChangeManuel)},
			mobileMoneyTargets(&t.MobileMoney),
			[]any{&t.AutresActivites, &t.LieuActivite, &t.Anciennete, &t.Volume, &t.Sources},
			[]any{&t.Soussigne, &t.NomAssociationAtteste, &t.NomResponsableAssociation, &t.LieuFait, &t.DateEngagement},
			authorityTargets(&t.Authority),
			[]any{&t.PhotoIDPath, &t.DateEnregistrement},
		)
	},
}

// OperatorTable maps models.Operator onto the operateurs table.
var OperatorTable = Table[*models.Operator]{
	Name: "operateurs",
	Columns: concat(
		[]string{"statut", "nom_etablissement", "num_agent", "monnaie_internationale"},
		identityColumns,
		mobileMoneyColumns,
		authorityColumns,
		[]string{"photo_path", "date_enregistrement"},
	),
	Immutable: []string{"date_enregistrement"},
	New:       func() *models.Operator { return &models.Operator{} },
	Values: func(o *models.Operator) []any {
		return join(
			[]any{o.Statut, o.NomEtablissement, o.NumAgent, bool(o.MonnaieInternationale)},
			identityValues(&o.Identity),
			mobileMoneyValues(&o.MobileMoney),
			authorityValues(&o.Authority),
			[]any{o.PhotoPath, o.DateEnregistrement},
		)
	},
	Targets: func(o *models.Operator) []any {
		return join(
			[]any{&o.Statut, &o.NomEtablissement, &o.NumAgent, (*bool)(&o.MonnaieInternationale)},
			identityTargets(&o.Identity),
			mobileMoneyTargets(&o.MobileMoney),
			authorityTargets(&o.Authority),
			[]any{&o.PhotoPath, &o.DateEnregistrement},
		)
	},
}

// NewTraderSQL returns the SQL-backed trader store.
func NewTraderSQL(db *sql.DB, dialect database.Dialect) *SQLStore[*models.Trader] {
	return NewSQL(db, dialect, TraderTable)
}

// NewOperatorSQL returns the SQL-backed operator store.
func NewOperatorSQL(db *sql.DB, dialect database.Dialect) *SQLStore[*models.Operator] {
	return NewSQL(db, dialect, OperatorTable)
}
