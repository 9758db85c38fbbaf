package generator

import (
	"github.com/emergent-company/orgtwin/internal/model"
)

func pick[T any](rng interface{ Intn(int) int }, options []T) T {
	return options[rng.Intn(len(options))]
}

func pickRisk(rng interface{ Intn(int) int }) model.RiskLevel {
	return model.RiskLevels[rng.Intn(len(model.RiskLevels))]
}

var severities = []string{"low", "medium", "high", "critical"}

var firstNames = []string{
	"Ava", "Liam", "Noah", "Emma", "Olivia", "Mateo", "Sofia", "Wei", "Priya", "Diego",
	"Hana", "Kwame", "Lucas", "Mia", "Yusuf", "Elena", "Omar", "Zoe", "Aarav", "Chloe",
	"Nadia", "Felix", "Ingrid", "Tariq", "Ines", "Jonas", "Keiko", "Marco", "Nina", "Sven",
}

var lastNames = []string{
	"Nakamura", "Garcia", "Smith", "Kowalski", "Silva", "Khan", "Johansson", "Dubois",
	"Alvarez", "Müller", "Patel", "Okafor", "Rossi", "Novak", "Larsen", "Haddad",
	"Petrov", "Andersen", "Fontaine", "Tanaka", "Osei", "Reyes", "Bergström", "Costa",
}

func randomPersonName(rng interface{ Intn(int) int }) string {
	return pick(rng, firstNames) + " " + pick(rng, lastNames)
}
