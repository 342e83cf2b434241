// Package catalog holds the device catalog and the rules generated from it.
// Rules are regenerated wholesale whenever the device set changes; readers
// always see a consistent snapshot.
package catalog

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"device-match-service/internal/fileio"
	"device-match-service/internal/match/model"
	"device-match-service/internal/match/service"
	"device-match-service/internal/utils"
)

// Column aliases accepted in uploaded catalog spreadsheets. Lookup is
// case-insensitive for the Latin variants.
var columnAliases = map[string][]string{
	"device_id":       {"设备id", "设备编号", "编号", "device_id", "id"},
	"brand":           {"品牌", "brand", "厂商", "厂家"},
	"device_name":     {"设备名称", "名称", "device_name", "name"},
	"spec_model":      {"规格型号", "型号", "spec_model", "model"},
	"detailed_params": {"详细参数", "参数", "技术参数", "detailed_params", "params"},
	"unit_price":      {"单价", "价格", "unit_price", "price"},
	"match_threshold": {"匹配阈值", "阈值", "match_threshold", "threshold"},
}

// Store is the in-memory catalog. It implements service.DeviceLookup.
type Store struct {
	mu      sync.RWMutex
	devices map[string]model.Device
	order   []string
	rules   []model.Rule

	gen *service.RuleGenerator
	log zerolog.Logger
}

func NewStore(gen *service.RuleGenerator, log zerolog.Logger) *Store {
	return &Store{
		devices: map[string]model.Device{},
		gen:     gen,
		log:     log,
	}
}

// LoadFile parses a catalog spreadsheet and replaces the device set.
// Returns the number of devices loaded.
func (s *Store) LoadFile(r io.Reader, filename string) (int, error) {
	rows, err := fileio.ReadAnyMaps(r, filename, 1)
	if err != nil {
		return 0, fmt.Errorf("read catalog %s: %w", filename, err)
	}
	devices := make([]model.Device, 0, len(rows))
	for i, row := range rows {
		d, ok := deviceFromRow(row)
		if !ok {
			s.log.Warn().Int("row", i+2).Str("file", filename).Msg("catalog row has no device id, skipped")
			continue
		}
		devices = append(devices, d)
	}
	if err := s.SetDevices(devices); err != nil {
		return 0, err
	}
	return len(devices), nil
}

// SetDevices replaces the catalog and regenerates every rule. Devices that
// yield no features are kept in the catalog but get no rule.
func (s *Store) SetDevices(devices []model.Device) error {
	rules, err := s.gen.GenerateRules(devices)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.devices = make(map[string]model.Device, len(devices))
	s.order = s.order[:0]
	for _, d := range devices {
		if _, dup := s.devices[d.DeviceID]; dup {
			s.log.Warn().Str("device_id", d.DeviceID).Msg("duplicate device id, last occurrence wins")
		} else {
			s.order = append(s.order, d.DeviceID)
		}
		s.devices[d.DeviceID] = d
	}
	s.rules = rules
	s.log.Info().Int("devices", len(devices)).Int("rules", len(rules)).Msg("catalog updated")
	return nil
}

// Device implements service.DeviceLookup.
func (s *Store) Device(id string) (model.Device, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.devices[id]
	return d, ok
}

// Devices returns the catalog in load order.
func (s *Store) Devices() []model.Device {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Device, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.devices[id])
	}
	return out
}

// Rules returns the current rule snapshot. The slice is shared: callers
// must not mutate it.
func (s *Store) Rules() []model.Rule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rules
}

func deviceFromRow(row map[string]string) (model.Device, bool) {
	get := func(field string) string {
		for _, alias := range columnAliases[field] {
			for k, v := range row {
				if strings.EqualFold(strings.TrimSpace(k), alias) {
					if v = strings.TrimSpace(v); v != "" {
						return v
					}
				}
			}
		}
		return ""
	}

	d := model.Device{
		DeviceID:       get("device_id"),
		Brand:          get("brand"),
		DeviceName:     get("device_name"),
		SpecModel:      get("spec_model"),
		DetailedParams: get("detailed_params"),
	}
	if d.DeviceID == "" {
		return model.Device{}, false
	}
	if p, ok := utils.ParsePrice(get("unit_price")); ok {
		d.UnitPrice = p
	}
	if t, ok := utils.ParsePrice(get("match_threshold")); ok && t > 0 {
		d.MatchThreshold = t
	}
	return d, true
}
