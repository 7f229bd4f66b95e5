package db

import (
	"fmt"
	"strconv"

	"laundry-coordinator/config"
	"laundry-coordinator/internal/model"
	"laundry-coordinator/internal/parse"
)

// Inventory expands the configured inventory into fresh Available machine records.
func Inventory(cfg config.InventoryConfig) ([]model.Machine, error) {
	if len(cfg.Machines) > 0 {
		return explicitInventory(cfg.Machines)
	}

	var machines []model.Machine
	for _, level := range cfg.Levels {
		for i := 1; i <= cfg.WashersPerLevel; i++ {
			machines = append(machines, newMachine(level+"_washer_"+strconv.Itoa(i), model.KindWasher, level, i))
		}
		for i := 1; i <= cfg.DryersPerLevel; i++ {
			machines = append(machines, newMachine(level+"_dryer_"+strconv.Itoa(i), model.KindDryer, level, i))
		}
	}
	return machines, nil
}

func explicitInventory(specs []config.MachineSpec) ([]model.Machine, error) {
	seen := make(map[string]struct{}, len(specs))
	machines := make([]model.Machine, 0, len(specs))
	for _, spec := range specs {
		if _, dup := seen[spec.ID]; dup {
			return nil, fmt.Errorf("duplicate machine id %q in inventory", spec.ID)
		}
		seen[spec.ID] = struct{}{}

		parsed, err := parse.ParseMachineID(spec.ID)
		if err != nil {
			return nil, err
		}

		kind := parsed.Kind
		if spec.Kind != "" {
			if kind, err = parse.ParseKind(spec.Kind); err != nil {
				return nil, fmt.Errorf("machine %q: %w", spec.ID, err)
			}
		}

		level := spec.Level
		if level == "" {
			level = parsed.Level
		}
		if level == "" {
			return nil, fmt.Errorf("machine %q has no level", spec.ID)
		}

		machines = append(machines, newMachine(spec.ID, kind, level, parsed.Seq))
	}
	return machines, nil
}

func newMachine(id string, kind model.Kind, level string, seq int) model.Machine {
	return model.Machine{
		ID:     id,
		Kind:   kind,
		Level:  level,
		Seq:    seq,
		Status: model.StatusAvailable,
	}
}
