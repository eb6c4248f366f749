package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	dErrors "binoqule/pkg/domain-errors"
)

type MemberSuite struct {
	suite.Suite
	now time.Time
}

func TestMemberSuite(t *testing.T) {
	suite.Run(t, new(MemberSuite))
}

func (s *MemberSuite) SetupTest() {
	s.now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
}

func validProfile() Profile {
	return Profile{
		Name:      "Ada Obi",
		Email:     "ada@binoqule.com",
		Role:      "Editor",
		FocusArea: "Tenancy law",
		PhotoURL:  "https://cdn.binoqule.com/ada.jpg",
	}
}

func (s *MemberSuite) TestNewMember() {
	s.Run("normalizes and stamps timestamps", func() {
		p := validProfile()
		p.Name = "  Ada Obi  "
		p.Email = "ADA@Binoqule.com"

		m, err := NewMember("m-1", p, s.now)
		s.Require().NoError(err)
		s.Equal("Ada Obi", m.Name)
		s.Equal("ada@binoqule.com", m.Email)
		s.Equal(s.now, m.CreatedAt)
		s.Equal(s.now, m.UpdatedAt)
		s.Zero(m.Position)
	})

	s.Run("requires name, email and role", func() {
		for _, blank := range []func(*Profile){
			func(p *Profile) { p.Name = "   " },
			func(p *Profile) { p.Email = "" },
			func(p *Profile) { p.Role = "" },
		} {
			p := validProfile()
			blank(&p)
			_, err := NewMember("m-1", p, s.now)
			s.Require().Error(err)
			s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
		}
	})

	s.Run("rejects malformed email", func() {
		p := validProfile()
		p.Email = "Ada <ada@binoqule.com>"
		_, err := NewMember("m-1", p, s.now)
		s.Require().Error(err)
		s.Contains(err.Error(), "email")
	})

	s.Run("rejects relative or non-http photo url", func() {
		for _, u := range []string{"/img/ada.jpg", "ftp://cdn/ada.jpg", "javascript:alert(1)"} {
			p := validProfile()
			p.PhotoURL = u
			_, err := NewMember("m-1", p, s.now)
			s.Require().Error(err, u)
		}
	})

	s.Run("enforces length limits", func() {
		p := validProfile()
		p.Name = strings.Repeat("a", MaxNameLength+1)
		_, err := NewMember("m-1", p, s.now)
		s.Require().Error(err)

		p = validProfile()
		p.Name = strings.Repeat("a", MaxNameLength)
		_, err = NewMember("m-1", p, s.now)
		s.NoError(err)
	})

	s.Run("counts characters, not bytes", func() {
		p := validProfile()
		p.Name = strings.Repeat("ọ", MaxNameLength)
		p.Role = "Olùkọ̀wé"
		p.Bio = strings.Repeat("ẹ", MaxBioLength)
		m, err := NewMember("m-1", p, s.now)
		s.Require().NoError(err)
		s.Equal(p.Name, m.Name)

		p.Name = strings.Repeat("ọ", MaxNameLength+1)
		_, err = NewMember("m-1", p, s.now)
		s.Require().Error(err)
	})
}

func (s *MemberSuite) TestApplyProfileKeepsPosition() {
	m, err := NewMember("m-1", validProfile(), s.now)
	s.Require().NoError(err)
	m.Position = 3

	later := s.now.Add(time.Hour)
	p := validProfile()
	p.Role = "Managing Editor"
	s.Require().NoError(m.ApplyProfile(p, later))
	s.Equal("Managing Editor", m.Role)
	s.Equal(3, m.Position)
	s.Equal(later, m.UpdatedAt)
	s.Equal(s.now, m.CreatedAt)

	p.Email = ""
	s.Error(m.ApplyProfile(p, later))
	s.Equal("ada@binoqule.com", m.Email, "failed update leaves member unchanged")
}

func (s *MemberSuite) TestParseDirection() {
	d, err := ParseDirection(" UP ")
	s.Require().NoError(err)
	s.Equal(DirectionUp, d)

	_, err = ParseDirection("sideways")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}
