package service

import (
	"bytes"
	"context"
	"fmt"
	"text/template"

	"github.com/truongnet3103/albion-GE/internal/model"

	"gorm.io/gorm"
)

var reportTmpl = template.Must(template.New("report").Parse(
	`⚔️ CTA REPORT: {{.Name}}
--------------------------------
Participation: {{.Count}} / {{.Target}}
Status: {{if eq .Status "pass"}}✅ PASS{{else}}❌ NOT YET{{end}}
Main role: {{if .MainRole}}{{.MainRole}}{{else}}-{{end}}
Last role: {{if .LastRole}}{{.LastRole}}{{else}}-{{end}}
--------------------------------
Role breakdown:
{{- range .Roles}}
• {{.Role}}: {{.Count}} ({{printf "%.1f" .Percent}}%)
{{- else}}
• no role history yet
{{- end}}
`))

type reportData struct {
	Name     string
	Count    int
	Target   int
	Status   string
	MainRole string
	LastRole string
	Roles    []model.RoleShare
}

// ReportService renders the per-member summary admins paste into chat.
type ReportService struct {
	db      *gorm.DB
	members *MemberService
	target  TargetSource
}

func NewReportService(db *gorm.DB, members *MemberService, target TargetSource) *ReportService {
	return &ReportService{db: db, members: members, target: target}
}

func (s *ReportService) Render(ctx context.Context, name string) (string, error) {
	m, err := s.members.Get(ctx, name)
	if err != nil {
		return "", err
	}
	target, err := s.target.MonthlyTarget(ctx)
	if err != nil {
		return "", err
	}

	var roles []string
	err = s.db.WithContext(ctx).Model(&model.RoleHistory{}).
		Where("member_name = ?", name).Order("timestamp").Pluck("role", &roles).Error
	if err != nil {
		return "", fmt.Errorf("load role history: %w", err)
	}

	data := reportData{
		Name:     m.Name,
		Count:    m.ParticipationCount,
		Target:   target,
		Status:   Classify(m.ParticipationCount, target),
		LastRole: m.LastRole,
		Roles:    RoleBreakdown(roles),
	}
	if len(data.Roles) > 0 {
		data.MainRole = data.Roles[0].Role
	}

	var buf bytes.Buffer
	if err := reportTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	return buf.String(), nil
}
