package testutil

import (
	"fmt"
	"time"

	"arefa/internal/registry/models"
)

// Day is a fixed registration day for deterministic fixtures.
var Day = time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }

// NewTrader builds a valid trader sheet registered at the given time.
func NewTrader(name string, registered time.Time) *models.Trader {
	t := &models.Trader{
		Identity: models.Identity{
			NomPrenom:   name,
			Sexe:        "M",
			Nationalite: "Congolaise",
			Telephone:   "+243810000000",
			Email:       "agent@example.cd",
		},
		AssociationNom: "ACK",
		ChangeManuel:   true,
		MobileMoney:    models.MobileMoney{MPesa: true},
		LieuActivite:   "Goma",
		Authority:      models.Authority{NumEnregistrement: "REG-1", AgentNom: "Kabila"},
		PhotoIDPath:    Ptr("uploads/cambiste-1.jpg"),
	}
	t.Stamp(registered)
	return t
}

// NewOperator builds a valid operator sheet registered at the given time.
func NewOperator(name, statut string, registered time.Time) *models.Operator {
	o := &models.Operator{
		Statut:                statut,
		NomEtablissement:      "Cabine Bukavu",
		MonnaieInternationale: true,
		Identity:              models.Identity{NomPrenom: name, Telephone: "+243990000000"},
		MobileMoney:           models.MobileMoney{AirtelMoney: true, VenteTelecom: true},
	}
	o.Stamp(registered)
	return o
}

// Traders builds n traders named "<prefix> <i>" registered a minute apart,
// oldest first.
func Traders(prefix string, n int) []*models.Trader {
	out := make([]*models.Trader, n)
	for i := range n {
		out[i] = NewTrader(fmt.Sprintf("%s %d", prefix, i+1), Day.Add(time.Duration(i)*time.Minute))
	}
	return out
}
