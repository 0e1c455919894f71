package conversation

import (
	"github.com/m3rciful/grabbot/core/telegram/keyboard"
	"github.com/m3rciful/grabbot/internal/locale"
	"github.com/m3rciful/grabbot/internal/media"

	tele "gopkg.in/telebot.v4"
)

// Inline button keys.
const (
	CallbackLanguage = "lang"
	CallbackQuality  = "quality"

	payloadCancel = "cancel"
)

func languageKeyboard() *tele.ReplyMarkup {
	return keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{{Text: locale.T(locale.BtnEnglish, locale.EN), Unique: CallbackLanguage, Data: string(locale.EN)}},
		[]keyboard.InlineBtn{{Text: locale.T(locale.BtnArabic, locale.AR), Unique: CallbackLanguage, Data: string(locale.AR)}},
	)
}

func mainKeyboard(lang locale.Lang) *tele.ReplyMarkup {
	return keyboard.ReplyButtons(
		[]string{locale.T(locale.BtnDownload, lang)},
		[]string{locale.T(locale.BtnCancel, lang)},
	)
}

// qualityButtons maps each tier to its button label.
var qualityButtons = map[media.Quality]string{
	media.QualityHD:    locale.BtnHD,
	media.QualitySD:    locale.BtnSD,
	media.QualityAudio: locale.BtnAudio,
}

func qualityKeyboard(lang locale.Lang) *tele.ReplyMarkup {
	rows := make([][]keyboard.InlineBtn, 0, len(media.Qualities)+1)
	for _, q := range media.Qualities {
		rows = append(rows, []keyboard.InlineBtn{{Text: locale.T(qualityButtons[q], lang), Unique: CallbackQuality, Data: string(q)}})
	}
	rows = append(rows, []keyboard.InlineBtn{{Text: locale.T(locale.BtnCancel, lang), Unique: CallbackQuality, Data: payloadCancel}})
	return keyboard.InlineButtonsRows(rows...)
}

var qualityLabels = func() map[string]string {
	m := make(map[string]string)
	add := func(key, code string) {
		for _, label := range locale.Labels(key) {
			m[label] = code
		}
	}
	for q, key := range qualityButtons {
		add(key, string(q))
	}
	add(locale.BtnCancel, payloadCancel)
	return m
}()

// choiceFromText maps a typed quality label or code to a callback payload.
func choiceFromText(text string) (string, bool) {
	if code, ok := qualityLabels[text]; ok {
		return code, true
	}
	if text == payloadCancel {
		return payloadCancel, true
	}
	if q, err := media.ParseQuality(text); err == nil {
		return string(q), true
	}
	return "", false
}
