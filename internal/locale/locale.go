// Package locale holds the bot's user-facing text in English and Arabic.
package locale

import "strings"

// Lang is a supported interface language.
type Lang string

const (
	EN Lang = "en"
	AR Lang = "ar"
)

// Default is used until the user picks a language.
const Default = EN

// Languages lists the supported languages in menu order.
var Languages = []Lang{EN, AR}

// Message keys.
const (
	StartLanguagePrompt = "start_language_prompt"
	Greeting            = "greeting"
	ChooseAction        = "choose_action"
	AskLink             = "ask_link"
	QualityPrompt       = "quality_prompt"
	Downloading         = "downloading"
	TooLarge            = "too_large"
	Sending             = "sending"
	DownloadComplete    = "download_complete"
	Error               = "error"
	Cancelled           = "cancelled"
	Expired             = "expired"
	RateLimited         = "rate_limited"

	BtnDownload = "btn_download"
	BtnCancel   = "btn_cancel"
	BtnHD       = "btn_hd"
	BtnSD       = "btn_sd"
	BtnAudio    = "btn_audio"
	BtnEnglish  = "btn_english"
	BtnArabic   = "btn_arabic"
)

var texts = map[string]map[Lang]string{
	StartLanguagePrompt: {
		EN: "🌐 Please choose your language:",
		AR: "🌐 اختر لغتك:",
	},
	Greeting: {
		EN: "👋 Welcome! Send me a video link and I will download it for you.",
		AR: "👋 هلا والله! أرسل لي رابط الفيديو وأنا أحمله لك.",
	},
	ChooseAction: {
		EN: "🔽 Choose an action:",
		AR: "🔽 اختر وش تبي تسوي:",
	},
	AskLink: {
		EN: "🔗 Send me the video link:",
		AR: "🔗 أرسل رابط الفيديو:",
	},
	QualityPrompt: {
		EN: "🎚️ Choose the quality:",
		AR: "🎚️ اختر الجودة:",
	},
	Downloading: {
		EN: "⏳ Downloading, please wait...",
		AR: "⏳ جاري التحميل، انتظر شوي...",
	},
	TooLarge: {
		EN: "⚠️ The file is larger than 50 MB, Telegram won't let me send it. Try a lower quality.",
		AR: "⚠️ الملف أكبر من 50 ميجا وتيليجرام ما يسمح بإرساله. جرب جودة أقل.",
	},
	Sending: {
		EN: "📤 Sending the file...",
		AR: "📤 جاري إرسال الملف...",
	},
	DownloadComplete: {
		EN: "✅ Done! Enjoy.",
		AR: "✅ تم! بالعافية.",
	},
	Error: {
		EN: "❌ Something went wrong while downloading. Check the link and try again.",
		AR: "❌ صار خطأ أثناء التحميل. تأكد من الرابط وحاول مرة ثانية.",
	},
	Cancelled: {
		EN: "🚫 Cancelled.",
		AR: "🚫 تم الإلغاء.",
	},
	Expired: {
		EN: "⌛ This choice has expired. Start a new download.",
		AR: "⌛ انتهت صلاحية هذا الاختيار. ابدأ تحميل جديد.",
	},
	RateLimited: {
		EN: "🐢 Slow down a little, please.",
		AR: "🐢 شوي شوي لو سمحت.",
	},

	BtnDownload: {EN: "Download Video 🎥", AR: "تحميل فيديو 🎥"},
	BtnCancel:   {EN: "❌ Cancel", AR: "❌ إلغاء"},
	BtnHD:       {EN: "HD 🔥", AR: "HD 🔥"},
	BtnSD:       {EN: "SD 📼", AR: "جودة عادية 📼"},
	BtnAudio:    {EN: "Audio Only 🎵", AR: "صوت بس 🎵"},
	BtnEnglish:  {EN: "🇬🇧 English", AR: "🇬🇧 English"},
	BtnArabic:   {EN: "🇸🇦 العربية", AR: "🇸🇦 العربية"},
}

// T returns the text for key in lang, falling back to English, then to the key itself.
func T(key string, lang Lang) string {
	byLang, ok := texts[key]
	if !ok {
		return key
	}
	if s := byLang[lang]; s != "" {
		return s
	}
	if s := byLang[Default]; s != "" {
		return s
	}
	return key
}

// Keys returns every message key.
func Keys() []string {
	keys := make([]string, 0, len(texts))
	for k := range texts {
		keys = append(keys, k)
	}
	return keys
}

// Parse maps a language code such as "ar" or "en-US" to a supported Lang.
func Parse(code string) (Lang, bool) {
	code = strings.ToLower(strings.TrimSpace(code))
	if base, _, found := strings.Cut(code, "-"); found {
		code = base
	}
	for _, l := range Languages {
		if string(l) == code {
			return l, true
		}
	}
	return Default, false
}

// Labels returns the text of key in every language, for matching button presses.
func Labels(key string) []string {
	seen := make(map[string]struct{}, len(Languages))
	var out []string
	for _, l := range Languages {
		s := T(key, l)
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
