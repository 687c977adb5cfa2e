package usecases

import (
	"fmt"

	"github.com/Singularity-v/MAP/internal/core/domain"
)

// Marker styling, matching the bundled image assets.
var (
	userIcon   = domain.IconRef{Name: "fish", Width: 35, Height: 35}
	staticIcon = domain.IconRef{Name: "subway", Width: 26, Height: 28, Ring: &domain.Ring{Fill: "#fcd9e1", Border: "#f47b97"}}
	liveIcon   = domain.IconRef{Name: "bike", Width: 26, Height: 28, Ring: &domain.Ring{Fill: "#f9c846", Border: "#F8BA12"}}
)

const (
	chartRadius      = 17
	chartInnerRadius = 7
	emptyDocksColor  = "#dc493a"
	bikesColor       = "#4392f1"
)

// Project merges the user marker, the static sites and the live sites into
// one render-ready list: user first, then static sites in dataset order, then
// live sites in feed order. It has no state; equal inputs give equal output.
func Project(user domain.UserMarker, statics []domain.StaticSite, lives []domain.LiveSite) []domain.RenderMarker {
	out := make([]domain.RenderMarker, 0, 1+len(statics)+len(lives))

	out = append(out, domain.RenderMarker{
		Key:      domain.UserMarkerKey,
		Kind:     domain.MarkerUser,
		Position: user.Position,
		Title:    user.Label,
		Subtitle: user.Address,
		Visual:   domain.Visual{Icon: userIcon},
	})

	for _, s := range statics {
		out = append(out, domain.RenderMarker{
			Key:      s.Key(),
			Kind:     domain.MarkerStatic,
			Position: s.Position,
			Title:    s.Name,
			Subtitle: s.Address,
			Visual:   domain.Visual{Icon: staticIcon},
		})
	}

	for _, s := range lives {
		out = append(out, projectLive(s))
	}

	return out
}

func projectLive(s domain.LiveSite) domain.RenderMarker {
	ratio, drawChart := AvailabilityRatio(s.Occupied, s.CapacityTotal)

	visual := domain.Visual{Icon: liveIcon, Ratio: ratio}
	if drawChart {
		bikes := ratio * 100
		visual.Chart = &domain.PieChart{
			Ratio:       ratio,
			Radius:      chartRadius,
			InnerRadius: chartInnerRadius,
			Slices: []domain.PieSlice{
				{Label: fmt.Sprint(s.CapacityTotal - min(s.Occupied, s.CapacityTotal)), Share: 100 - bikes, Color: emptyDocksColor},
				{Label: fmt.Sprint(min(s.Occupied, s.CapacityTotal)), Share: bikes, Color: bikesColor},
			},
		}
	}

	return domain.RenderMarker{
		Key:      s.Key(),
		Kind:     domain.MarkerLive,
		Position: s.Position,
		Title:    fmt.Sprintf("%s %d/%d", s.Name, s.Occupied, s.CapacityTotal),
		Subtitle: s.Address,
		Visual:   visual,
	}
}

// AvailabilityRatio returns occupied/capacity clamped to [0,1] and whether a
// chart can be drawn. A zero (or negative) capacity has no meaningful ratio:
// it yields 0 and no chart.
func AvailabilityRatio(occupied, capacity int) (ratio float64, drawChart bool) {
	if capacity <= 0 {
		return 0, false
	}
	occupied = max(0, min(occupied, capacity))
	return float64(occupied) / float64(capacity), true
}
