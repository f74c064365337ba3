// KPIPulse - KPI Reminder and Reporting Automation
// Copyright 2026 STS Platform Team
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sts-platform/kpipulse

// Package notifier delivers reminder notifications. The only production
// implementation is SMTP email; the Notifier interface exists so the planner
// can be exercised against fakes.
package notifier

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/url"
	"strconv"

	"github.com/sts-platform/kpipulse/internal/models"
)

// Notifier attempts delivery of one notification group and reports the
// outcome. Implementations must bound their own timeouts; the planner treats
// every call as a fallible, non-retrying side effect.
type Notifier interface {
	Send(ctx context.Context, group models.NotificationGroup) error
}

// Subject builds the reminder subject line. A group covering several KPIs
// names the first and counts the rest rather than enumerating them all.
func Subject(group models.NotificationGroup) string {
	if len(group.Kpis) == 0 {
		return fmt.Sprintf("KPI Report - Week %s", group.Period)
	}
	name := group.Kpis[0].Name
	if n := len(group.Kpis) - 1; n > 0 {
		name = fmt.Sprintf("%s and %d more", name, n)
	}
	return fmt.Sprintf("KPI Report - %s - Week %s", name, group.Period)
}

// FormLink builds the link back to the form surface for a group, carrying
// the responsible, period and (when plant-scoped) plant parameters.
func FormLink(baseURL string, group models.NotificationGroup) string {
	params := url.Values{}
	params.Set("responsible_id", strconv.FormatInt(group.ResponsibleID, 10))
	params.Set("period", group.Period)
	if group.PlantID != 0 {
		params.Set("plant_id", strconv.FormatInt(group.PlantID, 10))
	}
	return baseURL + "/form?" + params.Encode()
}

// bodyTemplate renders the HTML reminder body. Layout kept close to the
// original notification mail: header, greeting, due KPI list, action button.
var bodyTemplate = template.Must(template.New("reminder").Parse(`<!DOCTYPE html>
<html>
<body style="font-family:Arial,sans-serif; background:#f7f7f7; padding:24px;">
  <div style="max-width:640px;margin:0 auto;background:#fff;border-radius:8px;overflow:hidden;border:1px solid #eee">
    <div style="background:#0078D7;color:#fff;padding:20px 24px">
      <h2 style="margin:0;font-weight:600">KPI Report – {{.ResponsibleName}}</h2>
      <div style="margin-top:8px;font-size:14px">Week {{.Period}}{{if .PlantName}} · {{.PlantName}}{{end}}</div>
    </div>
    <div style="padding:24px">
      <p>Hello {{.ResponsibleName}},</p>
      <p>The following KPI{{if .Multiple}}s are{{else}} is{{end}} due for reporting for week <strong>{{.Period}}</strong>:</p>
      <ul>
      {{- range .Kpis}}
        <li><strong>{{.Name}}</strong></li>
      {{- end}}
      </ul>
      <p>Please click the link below to fill out your KPI analysis and corrective actions:</p>
      <p style="text-align:center;margin:28px 0">
        <a href="{{.FormLink}}"
           style="display:inline-block;padding:12px 20px;border-radius:6px;background:#0078D7;color:#fff;text-decoration:none;font-weight:600">
          Open KPI Form
        </a>
      </p>
      <p style="font-size:12px;color:#666;margin-top:24px">
        This is an automated reminder from the KPI tracking system.
      </p>
    </div>
  </div>
</body>
</html>
`))

// bodyData is the template input for one reminder.
type bodyData struct {
	ResponsibleName string
	PlantName       string
	Period          string
	Kpis            []models.KpiRef
	Multiple        bool
	FormLink        string
}

// RenderBody renders the HTML reminder body for a group.
func RenderBody(baseURL string, group models.NotificationGroup) (string, error) {
	var buf bytes.Buffer
	err := bodyTemplate.Execute(&buf, bodyData{
		ResponsibleName: group.ResponsibleName,
		PlantName:       group.PlantName,
		Period:          group.Period,
		Kpis:            group.Kpis,
		Multiple:        len(group.Kpis) > 1,
		FormLink:        FormLink(baseURL, group),
	})
	if err != nil {
		return "", fmt.Errorf("render reminder body: %w", err)
	}
	return buf.String(), nil
}
