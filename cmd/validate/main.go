package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jwebster45206/barter-engine/pkg/actor"
	"github.com/jwebster45206/barter-engine/pkg/item"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <data/traders/x.json|data/players/x.json|data/factions/x.json>...\n", os.Args[0])
		os.Exit(1)
	}

	failed := false
	for _, filename := range os.Args[1:] {
		validator := &DefinitionValidator{}
		if err := validator.validateFile(filename); err != nil {
			fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}

	fmt.Println("Definition files are valid!")
}

// definitionKind is taken from the directory holding the file.
type definitionKind string

const (
	kindTrader  definitionKind = "traders"
	kindPlayer  definitionKind = "players"
	kindFaction definitionKind = "factions"
)

type DefinitionValidator struct {
	errors []string
}

func (v *DefinitionValidator) validateFile(filename string) error {
	fmt.Printf("Validating %s...\n", filename)

	baseName := filepath.Base(filename)
	if !strings.HasSuffix(baseName, ".json") {
		return fmt.Errorf("definition file must have .json extension: %s", baseName)
	}
	if !isValidID(strings.TrimSuffix(baseName, ".json")) {
		return fmt.Errorf("definition filename '%s' must be lowercase snake_case (e.g., old_smith.json, not old-smith.json or OldSmith.json)", baseName)
	}

	kind := definitionKind(filepath.Base(filepath.Dir(filename)))
	switch kind {
	case kindTrader, kindPlayer, kindFaction:
	default:
		return fmt.Errorf("file %s must live in a traders, players or factions directory", filename)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	v.errors = nil

	if !json.Valid(data) {
		return fmt.Errorf("file %s contains invalid JSON", filename)
	}

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()

	switch kind {
	case kindFaction:
		var f actor.Faction
		if err := decoder.Decode(&f); err != nil {
			return fmt.Errorf("file %s failed strict JSON unmarshaling: %w", filename, err)
		}
		v.validateFaction(&f)
	default:
		var spec actor.CharacterSpec
		if err := decoder.Decode(&spec); err != nil {
			return fmt.Errorf("file %s failed strict JSON unmarshaling: %w", filename, err)
		}
		v.validateCharacter(&spec, kind)
	}

	if err := validateSchema(kind, data); err != nil {
		return fmt.Errorf("file %s does not match the %s schema: %w", filename, kind, err)
	}

	if len(v.errors) > 0 {
		return fmt.Errorf("validation errors in %s:\n%s", filename, strings.Join(v.errors, "\n"))
	}

	return nil
}

func (v *DefinitionValidator) validateFaction(f *actor.Faction) {
	if f.Name == "" {
		v.addError("faction has no name")
	}
	v.validateIDFormat("currency", f.Currency)
}

func (v *DefinitionValidator) validateCharacter(spec *actor.CharacterSpec, kind definitionKind) {
	if spec.Name == "" {
		v.addError("character has no name")
	}
	v.validateIDFormat("faction", spec.FactionID)

	if spec.Capacity.WeightG <= 0 || spec.Capacity.VolumeML <= 0 {
		v.addError("capacity weight_g and volume_ml must be positive")
	}

	for i, stack := range spec.Inventory {
		if len(stack) == 0 {
			v.addError(fmt.Sprintf("inventory slot %d is empty", i))
			continue
		}
		for _, it := range stack {
			v.validateItem(it, fmt.Sprintf("inventory slot %d", i))
		}
		v.validateStack(stack, i)
	}
	if spec.Wielded != nil {
		v.validateItem(spec.Wielded, "wielded item")
	}
	for _, cache := range spec.Nearby {
		for _, it := range cache.Items {
			v.validateItem(it, fmt.Sprintf("nearby cache '%s'", cache.Label))
		}
	}

	switch {
	case kind == kindPlayer && spec.Trade != nil:
		v.addError("player definitions must not carry a trade profile")
	case kind == kindTrader && spec.Trade == nil:
		v.addError("trader definitions need a trade profile")
	case spec.Trade != nil:
		v.validateTradeProfile(spec.Trade)
	}
}

func (v *DefinitionValidator) validateTradeProfile(p *actor.TradeProfile) {
	switch p.Disposition {
	case "", actor.DispositionHostile, actor.DispositionNeutral, actor.DispositionFriendly:
	default:
		v.addError(fmt.Sprintf("unknown disposition '%s'", p.Disposition))
	}
	if p.Companion && p.Shopkeeper {
		v.addError("a trader cannot be both a companion and a shopkeeper")
	}
	if p.MaxCredit < 0 || p.MaxOwe < 0 {
		v.addError("max_credit and max_owe must not be negative")
	}
	for _, id := range p.Buys {
		v.validateIDFormat("buys category", id)
	}
	for _, id := range p.Keeps {
		v.validateIDFormat("keeps category", id)
	}
	for id, mult := range p.Demand {
		v.validateIDFormat("demand category", id)
		if mult <= 0 {
			v.addError(fmt.Sprintf("demand for '%s' must be positive", id))
		}
	}
	if len(p.Restock) > 0 && !p.Shopkeeper {
		v.addError("only shopkeepers restock")
	}
	for _, it := range p.Restock {
		v.validateItem(it, "restock template")
	}
}

func (v *DefinitionValidator) validateItem(it *item.Item, context string) {
	if it == nil {
		v.addError(fmt.Sprintf("%s has a null item", context))
		return
	}
	if it.TypeID == "" {
		v.addError(fmt.Sprintf("%s has an item without a type (%s)", context, it.Name))
	}
	v.validateIDFormat("item type", it.TypeID)
	v.validateIDFormat("item category", it.Category.ID)
	if it.Name == "" {
		v.addError(fmt.Sprintf("%s has an item without a name (%s)", context, it.TypeID))
	}
	if it.Price < 0 || it.MarketPrice < 0 {
		v.addError(fmt.Sprintf("%s item '%s' has a negative price", context, it.TypeID))
	}
	if it.Charges < 0 || it.Weight < 0 || it.Volume < 0 {
		v.addError(fmt.Sprintf("%s item '%s' has negative charges, weight or volume", context, it.TypeID))
	}
	if len(it.Contents) > 0 && !it.Container {
		v.addError(fmt.Sprintf("%s item '%s' has contents but is not a container", context, it.TypeID))
	}
	for _, inner := range it.Contents {
		v.validateItem(inner, context+" container")
	}
}

// validateStack checks a stack holds one item type only.
func (v *DefinitionValidator) validateStack(stack item.Stack, slot int) {
	front := stack.Front()
	for _, it := range stack[1:] {
		if it != nil && front != nil && it.TypeID != front.TypeID {
			v.addError(fmt.Sprintf("inventory slot %d mixes '%s' and '%s'", slot, front.TypeID, it.TypeID))
		}
	}
}

func (v *DefinitionValidator) validateIDFormat(fieldName, id string) {
	if id == "" {
		return
	}

	if !isValidID(id) {
		v.addError(fmt.Sprintf("%s '%s' should be lowercase snake_case", fieldName, id))
	}
}

func (v *DefinitionValidator) addError(msg string) {
	v.errors = append(v.errors, "  - "+msg)
}

var validIDRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*[a-z0-9]$|^[a-z]$`)

func isValidID(id string) bool {
	return validIDRegex.MatchString(id)
}
