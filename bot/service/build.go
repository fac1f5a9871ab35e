package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// Descriptor is the typed form of one configured service.
type Descriptor struct {
	Type     string
	Name     string
	Commands []string
	API      string
	Addons   []string
}

// Factory constructs a service from its descriptor.
type Factory func(ctx context.Context, d Descriptor) (*Service, error)

// Registry maps service types to factories.
type Registry map[string]Factory

// Types lists the registered service types.
func (r Registry) Types() []string {
	out := make([]string, 0, len(r))
	for k := range r {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Build constructs every service, then attaches addons in a second pass.
// Unknown types, unknown addon names, addons attached to hosts of an
// unsupported kind and hosts that cannot carry addons all fail the build.
func Build(ctx context.Context, reg Registry, descs []Descriptor) ([]*Service, error) {
	var errs *multierror.Error
	built := make([]*Service, 0, len(descs))
	byName := make(map[string]*Service, len(descs))

	for _, d := range descs {
		f, ok := reg[strings.ToLower(d.Type)]
		if !ok {
			errs = multierror.Append(errs, fmt.Errorf("service %q: unknown type %q (known: %s)",
				d.Name, d.Type, strings.Join(reg.Types(), ", ")))
			continue
		}
		svc, err := f(ctx, d)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("service %q: %w", d.Name, err))
			continue
		}
		built = append(built, svc)
		byName[strings.ToLower(d.Name)] = svc
		if ns := svc.Namespace(); ns != "" {
			if _, taken := byName[ns]; !taken {
				byName[ns] = svc
			}
		}
	}

	for i, d := range descs {
		if len(d.Addons) == 0 {
			continue
		}
		host, ok := byName[strings.ToLower(d.Name)]
		if !ok {
			continue
		}
		for _, name := range d.Addons {
			addon, ok := byName[strings.ToLower(name)]
			switch {
			case !ok:
				errs = multierror.Append(errs, fmt.Errorf("service %q: unknown addon %q", d.Name, name))
			case addon.Addon == nil:
				errs = multierror.Append(errs, fmt.Errorf("service %q: %q is not an addon", d.Name, name))
			case host.Host == nil:
				errs = multierror.Append(errs, fmt.Errorf("service %q (#%d): cannot host addons", d.Name, i))
			case !addon.Addon.Supports(host.Kind):
				errs = multierror.Append(errs, fmt.Errorf("service %q: addon %q does not support %s hosts",
					d.Name, name, host.Kind))
			default:
				host.Host.Attach(addon.Addon)
			}
		}
	}

	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return built, nil
}
