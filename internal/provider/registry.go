// Copyright (C) 2026  Danish Fareed <danish.fareed@pm.me>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package provider

import (
	"sort"

	"github.com/spf13/viper"

	"github.com/danishfareed/formgate/internal/crypto"
	"github.com/danishfareed/formgate/internal/log"
)

// defaultProvider is always available and used as fallback when the configured provider is
// unknown.
const defaultProvider = "smtp"

// Registry maps provider identifiers to implementations.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry creates a registry holding every supported backend: the smtp default, the rest
// template backends and the signed ses variant.
func NewRegistry(box crypto.SecretBox) *Registry {
	providers := map[string]Provider{
		defaultProvider: newSMTPProvider(box),
		"ses":           newSESProvider(box),
	}

	for _, spec := range restSpecs {
		providers[spec.name] = newRESTProvider(spec, box)
	}

	return &Registry{providers: providers}
}

// Register adds or replaces a backend under its own name.
func (r *Registry) Register(p Provider) {
	r.providers[p.Name()] = p
}

// Get returns the provider with the given identifier.
func (r *Registry) Get(name string) (Provider, bool) {
	p, ok := r.providers[name]
	return p, ok
}

// Active returns the configured provider, falling back to the smtp default when the configured
// name is unknown.
func (r *Registry) Active() Provider {
	name := viper.GetString("delivery.provider")

	if p, ok := r.providers[name]; ok {
		return p
	}

	log.Warn().
		Str("provider", name).
		Str("fallback", defaultProvider).
		Msg("configured delivery provider is unknown")

	return r.providers[defaultProvider]
}

// Info describes a registered provider and its settings schema.
type Info struct {
	Name     string         `json:"name"`
	Settings []SettingField `json:"settings"`
}

// All returns every registered provider with its settings schema, sorted by name.
func (r *Registry) All() []Info {
	infos := make([]Info, 0, len(r.providers))

	for name, p := range r.providers {
		infos = append(infos, Info{Name: name, Settings: p.Settings()})
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Name < infos[j].Name
	})

	return infos
}
