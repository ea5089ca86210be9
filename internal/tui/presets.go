package tui

import "strconv"

// Preset is a menu entry that fills the question box with a common question.
type Preset struct {
	Title    string
	Question string
}

// Presets are the menu entries shown beside the question box.
var Presets = []Preset{
	{"전형 정보 안내", "세종대학교 학생부 종합전형, 교과전형, 논술전형에 대해 설명해줘."},
	{"모집 요강 확인", "세종대 학과별 모집인원, 지원자격, 제출서류 알려줘."},
	{"경쟁률/컷트라인 조회", "최근 3년간 세종대 경쟁률과 컷트라인 알려줘."},
	{"학과 소개", "세종대학교 각 학과를 간략히 소개해줘."},
	{"과거 마지막 합격/예비번호", "2023~2024학년도 마지막합격자 예비번호 알려줘"},
}

// FindPreset returns the preset with the given title or 1-based number.
func FindPreset(key string) (Preset, bool) {
	for i, p := range Presets {
		if p.Title == key || key == strconv.Itoa(i+1) {
			return p, true
		}
	}
	return Preset{}, false
}

// OfficeContact is the admissions office footer.
const OfficeContact = `세종대학교 입학처
주소: 서울특별시 광진구 능동로 209(군자동), 세종대학교 입학처 (우편번호 02006)
전화: (02)3408-3456, (02)3408-4455  팩스: (02)3408-3556
홈페이지: https://ipsi.sejong.ac.kr/`
