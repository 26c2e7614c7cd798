package models

import (
	"strconv"
	"time"
)

// Kind names a record family.
type Kind string

const (
	KindTrader   Kind = "cambiste"
	KindOperator Kind = "operateur"
)

// Establishment types an operator may declare.
const (
	StatutShop          = "Shop"
	StatutGrandeCabine  = "Grande cabine"
	StatutPetiteCabine  = "Petite cabine"
	DefaultOperatorType = StatutShop
)

// Statuts lists the accepted establishment types in display order.
var Statuts = []string{StatutShop, StatutGrandeCabine, StatutPetiteCabine}

// Identity is the person block shared by both record kinds.
type Identity struct {
	NomPrenom        string `json:"nomPrenom" validate:"required"`
	Sexe             string `json:"sexe"`
	DateNaissance    string `json:"dateNaissance"`
	LieuNaissance    string `json:"lieuNaissance"`
	Nationalite      string `json:"nationalite"`
	DocumentIdentite string `json:"documentIdentite"`
	Adresse          string `json:"adresse"`
	Telephone        string `json:"telephone" validate:"required"`
	Email            string `json:"email" validate:"omitempty,email"`
}

func (i Identity) fields(m map[string]any) {
	m["nomPrenom"] = i.NomPrenom
	m["sexe"] = i.Sexe
	m["dateNaissance"] = i.DateNaissance
	m["lieuNaissance"] = i.LieuNaissance
	m["nationalite"] = i.Nationalite
	m["documentIdentite"] = i.DocumentIdentite
	m["adresse"] = i.Adresse
	m["telephone"] = i.Telephone
	m["email"] = i.Email
}

// Authority is the block filled by the registering agent.
type Authority struct {
	NumEnregistrement string `json:"numEnregistrement"`
	AgentNom          string `json:"agentNom"`
	DateAutorite      string `json:"dateAutorite"`
}

func (a Authority) fields(m map[string]any) {
	m["numEnregistrement"] = a.NumEnregistrement
	m["agentNom"] = a.AgentNom
	m["dateAutorite"] = a.DateAutorite
}

// MobileMoney holds the e-money activity flags shared by both kinds.
type MobileMoney struct {
	AirtelMoney  Flag `json:"airtelMoney"`
	MPesa        Flag `json:"mPesa"`
	OrangeMoney  Flag `json:"orangeMoney"`
	Afrimoney    Flag `json:"afrimoney"`
	VenteTelecom Flag `json:"venteTelecom"`
}

func (mm MobileMoney) fields(m map[string]any) {
	m["airtelMoney"] = bool(mm.AirtelMoney)
	m["mPesa"] = bool(mm.MPesa)
	m["orangeMoney"] = bool(mm.OrangeMoney)
	m["afrimoney"] = bool(mm.Afrimoney)
	m["venteTelecom"] = bool(mm.VenteTelecom)
}

// Trader is a currency trader ("cambiste") registration sheet.
type Trader struct {
	ID int64 `json:"id"`
	Identity

	AssociationNom         string `json:"associationNom"`
	AssociationNumero      string `json:"associationNumero"`
	AssociationResponsable string `json:"associationResponsable"`
	AssociationContact     string `json:"associationContact"`
	GarantieNature         string `json:"garantieNature"`

	ChangeManuel Flag `json:"changeManuel"`
	MobileMoney
	AutresActivites string `json:"autresActivites"`

	LieuActivite string `json:"lieuActivite"`
	Anciennete   string `json:"anciennete"`
	Volume       string `json:"volume"`
	Sources      string `json:"sources"`

	Soussigne                 string `json:"soussigne"`
	NomAssociationAtteste     string `json:"nomAssociationAtteste"`
	NomResponsableAssociation string `json:"nomResponsableAssociation"`
	LieuFait                  string `json:"lieuFait"`
	DateEngagement            string `json:"dateEngagement"`

	Authority

	PhotoIDPath        *string   `json:"photoIDPath"`
	DateEnregistrement time.Time `json:"dateEnregistrement"`
}

// TraderActivities are the flag keys a trader can be filtered on.
var TraderActivities = []string{"changeManuel", "airtelMoney", "mPesa", "orangeMoney", "afrimoney", "venteTelecom"}

func (t *Trader) RecordID() int64 { return t.ID }
func (t *Trader) SetID(id int64) { t.ID = id }
func (t *Trader) DisplayName() string { return t.NomPrenom }
func (t *Trader) AssociationName() string { return t.AssociationNom }
func (t *Trader) Category() string { return "" }
func (t *Trader) RegisteredOn() time.Time { return t.DateEnregistrement }
func (t *Trader) PhotoRef() string { return deref(t.PhotoIDPath) }
func (t *Trader) SetPhotoRef(ref *string) { t.PhotoIDPath = ref }
func (t *Trader) ReadOnlyKeys() []string { return readOnlyKeys }
func (t *Trader) Stamp(now time.Time) { t.DateEnregistrement = now.UTC() }
func (t *Trader) Kind() Kind { return KindTrader }
func (t *Trader) Activity(key string) (bool, bool) {
	switch key {
	case "changeManuel":
		return bool(t.ChangeManuel), true
	case "airtelMoney":
		return bool(t.AirtelMoney), true
	case "mPesa":
		return bool(t.MPesa), true
	case "orangeMoney":
		return bool(t.OrangeMoney), true
	case "afrimoney":
		return bool(t.Afrimoney), true
	case "venteTelecom":
		return bool(t.VenteTelecom), true
	}
	return false, false
}

// Clone returns a deep copy.
func (t *Trader) Clone() *Trader {
	c := *t
	c.PhotoIDPath = clonePtr(t.PhotoIDPath)
	return &c
}

// Fields flattens the sheet into its wire keys for document rendering.
func (t *Trader) Fields() map[string]any {
	m := map[string]any{
		"id":                        t.ID,
		"associationNom":            t.AssociationNom,
		"associationNumero":         t.AssociationNumero,
		"associationResponsable":    t.AssociationResponsable,
		"associationContact":        t.AssociationContact,
		"garantieNature":            t.GarantieNature,
		"changeManuel":              bool(t.ChangeManuel),
		"autresActivites":           t.AutresActivites,
		"lieuActivite":              t.LieuActivite,
		"anciennete":                t.Anciennete,
		"volume":                    t.Volume,
		"sources":                   t.Sources,
		"soussigne":                 t.Soussigne,
		"nomAssociationAtteste":     t.NomAssociationAtteste,
		"nomResponsableAssociation": t.NomResponsableAssociation,
		"lieuFait":                  t.LieuFait,
		"dateEngagement":            t.DateEngagement,
		"photoIDPath":               t.PhotoRef(),
		"dateEnregistrement":        t.DateEnregistrement,
	}
	t.Identity.fields(m)
	t.MobileMoney.fields(m)
	t.Authority.fields(m)
	return m
}

// Operator is a mobile-money operator identification sheet.
type Operator struct {
	ID int64 `json:"id"`

	Statut                string `json:"statut" validate:"required,oneof='Shop' 'Grande cabine' 'Petite cabine'"`
	NomEtablissement      string `json:"nomEtablissement"`
	NumAgent              string `json:"numAgent"`
	MonnaieInternationale Flag   `json:"monnaieInternationale"`

	Identity
	MobileMoney
	Authority

	PhotoPath          *string   `json:"photoPath"`
	DateEnregistrement time.Time `json:"dateEnregistrement"`
}

// OperatorActivities are the flag keys an operator can be filtered on.
var OperatorActivities = []string{"airtelMoney", "mPesa", "orangeMoney", "afrimoney", "venteTelecom", "monnaieInternationale"}

func (o *Operator) RecordID() int64 { return o.ID }
func (o *Operator) SetID(id int64) { o.ID = id }
func (o *Operator) DisplayName() string { return o.NomPrenom }
func (o *Operator) AssociationName() string { return o.NomEtablissement }
func (o *Operator) Category() string { return o.Statut }
func (o *Operator) RegisteredOn() time.Time { return o.DateEnregistrement }
func (o *Operator) PhotoRef() string { return deref(o.PhotoPath) }
func (o *Operator) SetPhotoRef(ref *string) { o.PhotoPath = ref }
func (o *Operator) ReadOnlyKeys() []string { return readOnlyKeys }
func (o *Operator) Stamp(now time.Time) { o.DateEnregistrement = now.UTC() }
func (o *Operator) Kind() Kind { return KindOperator }
func (o *Operator) Activity(key string) (bool, bool) {
	switch key {
	case "monnaieInternationale":
		return bool(o.MonnaieInternationale), true
	case "airtelMoney":
		return bool(o.AirtelMoney), true
	case "mPesa":
		return bool(o.MPesa), true
	case "orangeMoney":
		return bool(o.OrangeMoney), true
	case "afrimoney":
		return bool(o.Afrimoney), true
	case "venteTelecom":
		return bool(o.VenteTelecom), true
	}
	return false, false
}

// Clone returns a deep copy.
func (o *Operator) Clone() *Operator {
	c := *o
	c.PhotoPath = clonePtr(o.PhotoPath)
	return &c
}

// Fields flattens the sheet into its wire keys for document rendering.
func (o *Operator) Fields() map[string]any {
	m := map[string]any{
		"id":                    o.ID,
		"statut":                o.Statut,
		"nomEtablissement":      o.NomEtablissement,
		"numAgent":              o.NumAgent,
		"monnaieInternationale": bool(o.MonnaieInternationale),
		"photoPath":             o.PhotoRef(),
		"dateEnregistrement":    o.DateEnregistrement,
	}
	o.Identity.fields(m)
	o.MobileMoney.fields(m)
	o.Authority.fields(m)
	return m
}

var readOnlyKeys = []string{"id", "dateEnregistrement"}

// IDFragment is the last four characters of the decimal id, used in file
// names and display numbers.
func IDFragment(id int64) string {
	s := strconv.FormatInt(id, 10)
	if len(s) <= 4 {
		return s
	}
	return s[len(s)-4:]
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func clonePtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
