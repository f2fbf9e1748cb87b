package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/gasbox/internal/sim"
)

type ExportData struct {
	Scene       string             `json:"scene"`
	Integrator  string             `json:"integrator"`
	Seed        int64              `json:"seed"`
	Dt          float64            `json:"dt"`
	Duration    float64            `json:"duration"`
	Steps       int                `json:"steps"`
	Warnings    int                `json:"warnings"`
	EnergyDrift float64            `json:"energy_drift"`
	Times       []float64          `json:"times"`
	Temperature []float64          `json:"temperature"`
	Energy      []float64          `json:"kinetic_energy"`
	Metrics     map[string]float64 `json:"metrics"`
}

func newExportData(info RunInfo, result *sim.Result) ExportData {
	data := ExportData{
		Scene:       info.Scene,
		Integrator:  info.Integrator,
		Seed:        info.Seed,
		Dt:          info.Dt,
		Duration:    info.Duration,
		Steps:       result.StepsTaken,
		Warnings:    result.Warnings,
		EnergyDrift: result.EnergyDrift,
		Times:       make([]float64, len(result.Samples)),
		Temperature: make([]float64, len(result.Samples)),
		Energy:      make([]float64, len(result.Samples)),
		Metrics:     result.Metrics,
	}
	for i, smp := range result.Samples {
		data.Times[i] = smp.Time
		data.Temperature[i] = smp.Stats.Temperature
		data.Energy[i] = smp.Stats.KineticEnergy
	}
	return data
}

func ExportJSON(path string, info RunInfo, result *sim.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteJSON(file, info, result)
}

// WriteJSON writes the run summary and its time series to w.
func WriteJSON(w io.Writer, info RunInfo, result *sim.Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(newExportData(info, result))
}
