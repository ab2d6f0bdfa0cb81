// Package birthdays - vcard.go разбирает файл контактов .vcf для импорта.
package birthdays

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-vcard"
	log "github.com/sirupsen/logrus"
)

// форматы BDAY с известным годом
var vcardDateLayouts = []string{"2006-01-02", "20060102"}

// ParseVCards читает все карточки из r. Карточка подходит, если в ней есть
// фамилия, имя и полная дата рождения; остальные пропускаются и считаются в skipped.
// Если файл ломается посередине, возвращается то, что успели прочитать.
func ParseVCards(r io.Reader) (reqs []AddRequest, skipped int, err error) {
	dec := vcard.NewDecoder(r)
	for {
		card, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if len(reqs) == 0 && skipped == 0 {
				return nil, 0, fmt.Errorf("ошибка чтения vCard: %w", err)
			}
			log.WithError(err).Warn("vcard: файл прочитан не полностью")
			skipped++
			break
		}

		req, ok := cardToRequest(card)
		if !ok {
			skipped++
			continue
		}
		reqs = append(reqs, req)
	}
	return reqs, skipped, nil
}

func cardToRequest(card vcard.Card) (AddRequest, bool) {
	name := card.Name()
	if name == nil {
		return AddRequest{}, false
	}
	last := strings.TrimSpace(name.FamilyName)
	first := strings.TrimSpace(name.GivenName)
	if last == "" || first == "" {
		return AddRequest{}, false
	}

	date, ok := parseVCardDate(card.Value(vcard.FieldBirthday))
	if !ok {
		return AddRequest{}, false
	}

	req := AddRequest{LastName: last, FirstName: first, BirthDate: date}
	if middle := strings.TrimSpace(name.AdditionalName); middle != "" {
		req.MiddleName = &middle
	}
	return req, true
}

func parseVCardDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	// время после даты нам не нужно
	if i := strings.IndexByte(value, 'T'); i > 0 {
		value = value[:i]
	}
	for _, layout := range vcardDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
